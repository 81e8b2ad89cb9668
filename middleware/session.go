package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"leadcatcher/models"
	"leadcatcher/services"
	"leadcatcher/utils"
)

const (
	SessionCookie  = "leadcatcher_sid"
	sessionUserKey = "user_id"

	localUser = "user"
	// LocalActor is the locals key of the request's services.Actor.
	LocalActor = "actor"
)

// Sessions ties the server-side session store to user identity.
type Sessions struct {
	store    *session.Store
	identity *services.IdentityService
}

// NewSessions builds the session store. A nil storage keeps sessions in memory.
func NewSessions(storage fiber.Storage, ttl time.Duration, secure bool, identity *services.IdentityService) *Sessions {
	return &Sessions{
		store: session.New(session.Config{
			Expiration:     ttl,
			Storage:        storage,
			KeyLookup:      "cookie:" + SessionCookie,
			CookieHTTPOnly: true,
			CookieSecure:   secure,
			CookieSameSite: fiber.CookieSameSiteLaxMode,
		}),
		identity: identity,
	}
}

// Login starts a fresh session for user. The session id is regenerated to
// prevent fixation.
func (s *Sessions) Login(c *fiber.Ctx, user *models.User) error {
	sess, err := s.store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(sessionUserKey, user.ID)
	return sess.Save()
}

func (s *Sessions) Logout(c *fiber.Ctx) error {
	sess, err := s.store.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}

// Protected rejects requests without a live session and stores the user and
// its Actor in the request locals.
func (s *Sessions) Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.store.Get(c)
		if err != nil {
			return utils.ErrorResponse(c, err)
		}

		userID, ok := sess.Get(sessionUserKey).(uint)
		if !ok || userID == 0 {
			return utils.ErrorResponse(c, utils.NewUnauthorizedError("Unauthorized"))
		}

		user, err := s.identity.GetUser(c.UserContext(), userID)
		if err != nil {
			if utils.KindOf(err) == utils.KindUnauthorized {
				_ = sess.Destroy()
			}
			return utils.ErrorResponse(c, err)
		}

		c.Locals(localUser, user)
		c.Locals(LocalActor, services.ActorFromUser(user))
		return c.Next()
	}
}

var errNoActor = errors.New("no authenticated actor in request")

// CurrentActor returns the actor stored by Protected.
func CurrentActor(c *fiber.Ctx) (services.Actor, error) {
	return ActorFrom(c.Locals(LocalActor))
}

// ActorFrom converts a raw locals value, e.g. from a websocket connection.
func ActorFrom(v interface{}) (services.Actor, error) {
	actor, ok := v.(services.Actor)
	if !ok {
		return services.Actor{}, errNoActor
	}
	return actor, nil
}

func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals(localUser).(*models.User)
	if !ok {
		return nil, errNoActor
	}
	return user, nil
}
