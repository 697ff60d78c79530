package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormStore is a Store backed by a gorm connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a GormStore.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Create(ctx context.Context, user User) error {
	err := s.db.WithContext(ctx).Create(&user).Error
	if isDuplicateKey(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (s *GormStore) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.take(ctx, "email = ?", email)
}

func (s *GormStore) FindByID(ctx context.Context, userID string) (User, error) {
	return s.take(ctx, "user_id = ?", userID)
}

func (s *GormStore) take(ctx context.Context, query string, value string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where(query, value).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// isDuplicateKey relies on the connection being opened with TranslateError.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
