package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const ownedNoteQuery = "note_id = ? AND owner_id = ?"

// GormStore is a Store backed by a gorm connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a GormStore.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errMissingDatabase
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Insert(ctx context.Context, note Note) error {
	return s.db.WithContext(ctx).Create(&note).Error
}

func (s *GormStore) ListByOwner(ctx context.Context, ownerID UserID) ([]Note, error) {
	notes := make([]Note, 0)
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID.String()).
		Order("created_at DESC").
		Order("note_id DESC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *GormStore) FindOwned(ctx context.Context, ownerID UserID, noteID NoteID) (Note, error) {
	return takeOwned(s.db.WithContext(ctx), ownerID, noteID)
}

func (s *GormStore) UpdateOwned(ctx context.Context, ownerID UserID, noteID NoteID, content Content, updatedAt time.Time) (Note, error) {
	var updated Note
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		note, err := takeOwned(tx, ownerID, noteID)
		if err != nil {
			return err
		}
		result := tx.Model(&Note{}).
			Where(ownedNoteQuery, noteID.String(), ownerID.String()).
			Updates(map[string]interface{}{
				"title":       content.Title,
				"description": content.Description,
				"updated_at":  updatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNoteNotFound
		}
		note.Title = content.Title
		note.Description = content.Description
		note.UpdatedAt = updatedAt
		updated = note
		return nil
	})
	if err != nil {
		return Note{}, err
	}
	return updated, nil
}

func (s *GormStore) DeleteOwned(ctx context.Context, ownerID UserID, noteID NoteID) error {
	result := s.db.WithContext(ctx).
		Where(ownedNoteQuery, noteID.String(), ownerID.String()).
		Delete(&Note{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNoteNotFound
	}
	return nil
}

func takeOwned(db *gorm.DB, ownerID UserID, noteID NoteID) (Note, error) {
	var note Note
	err := db.Where(ownedNoteQuery, noteID.String(), ownerID.String()).Take(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, ErrNoteNotFound
	}
	if err != nil {
		return Note{}, fmt.Errorf("notes: load note: %w", err)
	}
	return note, nil
}
