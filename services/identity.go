package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"leadcatcher/models"
	"leadcatcher/utils"
)

const resetRequestedMessage = "If an account exists for that email, a reset link has been sent"

type RegisterInput struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Name       string `json:"name" validate:"required"`
	AgencyName string `json:"agencyName" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type InviteInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// IdentityService owns users, agencies and credentials.
type IdentityService struct {
	db     *gorm.DB
	tokens *utils.ResetTokenIssuer
	mailer utils.Mailer
	log    *logrus.Entry
}

func NewIdentityService(db *gorm.DB, tokens *utils.ResetTokenIssuer, mailer utils.Mailer, log *logrus.Entry) *IdentityService {
	return &IdentityService{db: db, tokens: tokens, mailer: mailer, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new agency and its owner in one transaction.
func (s *IdentityService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	input.AgencyName = strings.TrimSpace(input.AgencyName)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	taken, err := s.emailTaken(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, utils.NewConflictError("Email already registered")
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		agency := models.Agency{Name: input.AgencyName}
		if err := tx.Create(&agency).Error; err != nil {
			return fmt.Errorf("create agency: %w", err)
		}

		user = models.User{
			Email:        input.Email,
			PasswordHash: hash,
			Name:         input.Name,
			Role:         models.RoleOwner,
			AgencyID:     agency.ID,
		}
		return tx.Create(&user).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, utils.NewConflictError("Email already registered")
	}
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"agency_id": user.AgencyID,
	}).Info("Agency registered")
	return &user, nil
}

// Login never reveals whether the email or the password was wrong.
func (s *IdentityService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(input.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.CheckPassword(utils.DummyPasswordHash(), input.Password)
		return nil, utils.NewUnauthorizedError("Invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !utils.CheckPassword(user.PasswordHash, input.Password) {
		return nil, utils.NewUnauthorizedError("Invalid email or password")
	}
	return &user, nil
}

// GetUser resolves a session's user id. A vanished user is unauthenticated.
func (s *IdentityService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewUnauthorizedError("Unauthorized")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *IdentityService) ListTeam(ctx context.Context, actor Actor) ([]models.User, error) {
	if !actor.IsOwner() {
		return nil, utils.NewForbiddenError("Only owners can view team")
	}

	users := []models.User{}
	if err := s.db.WithContext(ctx).
		Where("agency_id = ?", actor.AgencyID).
		Order("created_at ASC, id ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list team: %w", err)
	}
	return users, nil
}

// Invite adds a rep to the caller's agency with a temporary password.
func (s *IdentityService) Invite(ctx context.Context, actor Actor, input InviteInput) (*models.User, error) {
	if !actor.IsOwner() {
		return nil, utils.NewForbiddenError("Only owners can invite members")
	}

	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	taken, err := s.emailTaken(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, utils.NewConflictError("User already exists")
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		Role:         models.RoleRep,
		AgencyID:     actor.AgencyID,
	}
	err = s.db.WithContext(ctx).Create(&user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, utils.NewConflictError("User already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"agency_id":  actor.AgencyID,
		"invited_by": actor.UserID,
	}).Info("Team member invited")
	return &user, nil
}

// RequestPasswordReset always answers with the same message. Mail failures are
// logged, never surfaced, so the response does not reveal whether the account exists.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, input ForgotPasswordInput) (string, error) {
	input.Email = normalizeEmail(input.Email)
	if err := utils.ValidateStruct(input); err != nil {
		return "", err
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", input.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return resetRequestedMessage, nil
	}
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}

	token, err := s.tokens.Issue(&user)
	if err != nil {
		return "", fmt.Errorf("issue reset token: %w", err)
	}

	if err := s.mailer.SendPasswordResetEmail(user.Email, token); err != nil {
		utils.LogError("password_reset_mail", err, map[string]interface{}{
			"user_id": user.ID,
		})
	}
	return resetRequestedMessage, nil
}

// ResetPassword replaces the password of the token's user. A token stops
// working as soon as the password it was issued against changes.
func (s *IdentityService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}

	invalid := utils.NewValidationError("token", "Invalid or expired reset token")

	claims, err := s.tokens.Parse(input.Token)
	if err != nil {
		return invalid
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.First(&user, claims.UserID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid
		}
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}
		if utils.PasswordFingerprint(user.PasswordHash) != claims.Fingerprint {
			return invalid
		}

		if err := tx.Model(&user).Update("password", hash).Error; err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		s.log.WithField("user_id", user.ID).Info("Password reset")
		return nil
	})
}

func (s *IdentityService) emailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}
