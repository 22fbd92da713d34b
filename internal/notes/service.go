package notes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Service is the data-access gateway for contexts and notes. Every query
// carries an explicit user_id filter; ownership is enforced here, not by the
// caller.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Contexts returns the user's contexts, oldest first.
func (s *Service) Contexts(ctx context.Context, userID uuid.UUID) ([]Context, error) {
	var out []Context
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

func (s *Service) CreateContext(ctx context.Context, userID uuid.UUID, name string) (Context, error) {
	c := Context{Name: strings.TrimSpace(name), UserID: userID}
	if c.Name == "" {
		return Context{}, ErrInvalidInput
	}
	if err := s.DB.WithContext(ctx).Create(&c).Error; err != nil {
		return Context{}, err
	}
	return c, nil
}

func (s *Service) UpdateContext(ctx context.Context, userID, id uuid.UUID, name string) (Context, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Context{}, ErrInvalidInput
	}

	res := s.DB.WithContext(ctx).
		Model(&Context{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"name": name, "updated_at": time.Now()})
	if res.Error != nil {
		return Context{}, res.Error
	}
	if res.RowsAffected == 0 {
		return Context{}, ErrNotFound
	}

	var c Context
	if err := s.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return Context{}, err
	}
	return c, nil
}

// DeleteContext removes the context and all of its notes in one transaction,
// mirroring what a foreign-key cascade would do.
func (s *Service) DeleteContext(ctx context.Context, userID, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("context_id = ? AND user_id = ?", id, userID).Delete(&Note{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&Context{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// SeedDefaultContexts inserts the default contexts for a first-time user.
// The emptiness check runs inside the insert transaction so two concurrent
// first loads cannot both seed.
func (s *Service) SeedDefaultContexts(ctx context.Context, userID uuid.UUID) ([]Context, error) {
	var created []Context
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Context{}).
			Where("user_id = ?", userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return tx.Where("user_id = ?", userID).
				Order("created_at asc").
				Find(&created).Error
		}

		for _, name := range DefaultContextNames {
			c := Context{Name: name, UserID: userID}
			if err := tx.Create(&c).Error; err != nil {
				return err
			}
			created = append(created, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Notes returns all of the user's notes, newest first.
func (s *Service) Notes(ctx context.Context, userID uuid.UUID) ([]Note, error) {
	var out []Note
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

func (s *Service) NoteByID(ctx context.Context, userID, id uuid.UUID) (Note, error) {
	var n Note
	err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, ErrNotFound
	}
	return n, err
}

func (s *Service) CreateNote(ctx context.Context, userID, contextID uuid.UUID, title, content string) (Note, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return Note{}, ErrInvalidInput
	}

	// The target context must exist and belong to the user.
	var c Context
	err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", contextID, userID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, ErrNotFound
	}
	if err != nil {
		return Note{}, err
	}

	n := Note{ContextID: contextID, Title: title, Content: content, UserID: userID}
	if err := s.DB.WithContext(ctx).Create(&n).Error; err != nil {
		return Note{}, err
	}
	return n, nil
}

func (s *Service) UpdateNote(ctx context.Context, userID, id uuid.UUID, title, content string) (Note, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return Note{}, ErrInvalidInput
	}

	res := s.DB.WithContext(ctx).
		Model(&Note{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"title": title, "content": content, "updated_at": time.Now()})
	if res.Error != nil {
		return Note{}, res.Error
	}
	if res.RowsAffected == 0 {
		return Note{}, ErrNotFound
	}

	var n Note
	if err := s.DB.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return Note{}, err
	}
	return n, nil
}

func (s *Service) DeleteNote(ctx context.Context, userID, id uuid.UUID) error {
	res := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Note{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
