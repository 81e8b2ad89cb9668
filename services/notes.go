package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"leadcatcher/models"
	"leadcatcher/utils"
)

type NoteInput struct {
	Content string `json:"content" validate:"required,max=10000"`
}

// NoteService appends and lists notes. Notes are never edited or deleted.
type NoteService struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewNoteService(db *gorm.DB, log *logrus.Entry) *NoteService {
	return &NoteService{db: db, log: log}
}

func (s *NoteService) List(ctx context.Context, actor Actor, leadID uint) ([]models.Note, error) {
	if _, err := loadLead(ctx, s.db, actor, leadID); err != nil {
		return nil, err
	}

	notes := []models.Note{}
	if err := s.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at DESC, id DESC").
		Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

func (s *NoteService) Create(ctx context.Context, actor Actor, leadID uint, input NoteInput) (*models.Note, error) {
	lead, err := loadLead(ctx, s.db, actor, leadID)
	if err != nil {
		return nil, err
	}

	input.Content = strings.TrimSpace(input.Content)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	note := models.Note{
		LeadID:   lead.ID,
		AuthorID: actor.UserID,
		Content:  input.Content,
	}
	if err := s.db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"note_id":   note.ID,
		"lead_id":   lead.ID,
		"author_id": actor.UserID,
	}).Info("Note added")
	return &note, nil
}
