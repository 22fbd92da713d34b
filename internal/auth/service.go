package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already used")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
)

// Service is the auth gateway. Constructed explicitly and injected; nothing
// in this package holds a global handle.
type Service struct {
	DB     *gorm.DB
	JWT    *JWT
	Events *Broadcaster
}

func NewService(db *gorm.DB, jwtSvc *JWT, events *Broadcaster) *Service {
	return &Service{DB: db, JWT: jwtSvc, Events: events}
}

// SignUp creates the account and signs the user straight in.
func (s *Service) SignUp(ctx context.Context, email, password string) (User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, "", err
	}

	u := User{Email: email, PasswordHash: hash}
	if err := s.DB.WithContext(ctx).Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return User{}, "", ErrEmailTaken
		}
		return User{}, "", err
	}

	token, err := s.openSession(ctx, u.ID)
	if err != nil {
		return User{}, "", err
	}
	return u, token, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var u User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, "", ErrInvalidCredentials
		}
		return User{}, "", err
	}
	if u.PasswordHash == "" || !ComparePassword(u.PasswordHash, password) {
		return User{}, "", ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, u.ID)
	if err != nil {
		return User{}, "", err
	}
	return u, token, nil
}

// SignInOAuth upserts the user by provider-verified email and opens a
// session. Used by the Google callback once the redirect flow completes.
func (s *Service) SignInOAuth(ctx context.Context, email, name string) (User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return User{}, "", ErrInvalidCredentials
	}

	var u User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		u = User{Email: email, Name: name}
		if err := s.DB.WithContext(ctx).Create(&u).Error; err != nil {
			return User{}, "", err
		}
	case err != nil:
		return User{}, "", err
	default:
		if name != "" && name != u.Name {
			if err := s.DB.WithContext(ctx).Model(&u).Update("name", name).Error; err != nil {
				return User{}, "", err
			}
			u.Name = name
		}
	}

	token, err := s.openSession(ctx, u.ID)
	if err != nil {
		return User{}, "", err
	}
	return u, token, nil
}

// SignOut revokes the session. The token keeps verifying cryptographically
// until expiry; the watcher is what turns revocation into 401s.
func (s *Service) SignOut(ctx context.Context, sessionID uuid.UUID) error {
	// Fetch before the update so the revocation event can always carry the
	// owner; a lookup afterwards could fail and leave the watcher unaware.
	var sess Session
	if err := s.DB.WithContext(ctx).First(&sess, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	res := s.DB.WithContext(ctx).
		Model(&Session{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}

	s.Events.Publish(SessionEvent{Type: SignedOut, UserID: sess.UserID, SessionID: sessionID})
	return nil
}

func (s *Service) GetSession(ctx context.Context, sessionID uuid.UUID) (Session, error) {
	var sess Session
	if err := s.DB.WithContext(ctx).First(&sess, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}
	return sess, nil
}

func (s *Service) GetCurrentUser(ctx context.Context, userID uuid.UUID) (User, error) {
	var u User
	if err := s.DB.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrSessionNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (s *Service) openSession(ctx context.Context, userID uuid.UUID) (string, error) {
	sess := Session{
		UserID:    userID,
		ExpiresAt: time.Now().Add(tokenTTL),
	}
	if err := s.DB.WithContext(ctx).Create(&sess).Error; err != nil {
		return "", err
	}

	token, err := s.JWT.Sign(userID, sess.ID)
	if err != nil {
		return "", err
	}

	s.Events.Publish(SessionEvent{Type: SignedIn, UserID: userID, SessionID: sess.ID})
	return token, nil
}
