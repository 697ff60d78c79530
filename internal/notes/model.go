package notes

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CollectionName is the table and collection holding notes.
const CollectionName = "notes"

const maxIdentifierLength = 190

var (
	// ErrInvalidNoteID indicates that a note identifier is not a well-formed UUID.
	ErrInvalidNoteID = errors.New("notes: invalid note id")
	// ErrInvalidUserID indicates that a user identifier is empty or exceeds storage bounds.
	ErrInvalidUserID = errors.New("notes: invalid user id")
	// ErrValidation indicates a missing title or description.
	ErrValidation = errors.New("notes: title and description are required")
	// ErrNoteNotFound indicates no note with that id is owned by the caller.
	ErrNoteNotFound = errors.New("notes: note not found")
)

// NoteID represents a validated note identifier.
type NoteID string

// ParseNoteID validates raw input and returns its canonical NoteID.
func ParseNoteID(rawInput string) (NoteID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidNoteID)
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidNoteID, err)
	}
	return NoteID(parsed.String()), nil
}

// String returns the underlying string identifier.
func (id NoteID) String() string {
	return string(id)
}

// UserID represents a validated owner identifier.
type UserID string

// NewUserID validates raw input and returns a UserID.
func NewUserID(rawInput string) (UserID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidUserID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidUserID, maxIdentifierLength)
	}
	return UserID(trimmed), nil
}

// String returns the underlying string identifier.
func (id UserID) String() string {
	return string(id)
}

// Content is the user-editable part of a note.
type Content struct {
	Title       string
	Description string
}

func (c Content) normalized() (Content, error) {
	normalized := Content{
		Title:       strings.TrimSpace(c.Title),
		Description: strings.TrimSpace(c.Description),
	}
	if normalized.Title == "" {
		return Content{}, fmt.Errorf("%w: missing title", ErrValidation)
	}
	if normalized.Description == "" {
		return Content{}, fmt.Errorf("%w: missing description", ErrValidation)
	}
	return normalized, nil
}

// Note is a persisted note. OwnerID and NoteID never change after creation.
type Note struct {
	NoteID      string    `gorm:"column:note_id;primaryKey;size:64;not null;index:idx_notes_owner_created,priority:3,sort:desc" bson:"_id"`
	OwnerID     string    `gorm:"column:owner_id;size:190;not null;index:idx_notes_owner_created,priority:1" bson:"owner_id"`
	Title       string    `gorm:"column:title;type:text;not null" bson:"title"`
	Description string    `gorm:"column:description;type:text;not null" bson:"description"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime:false;index:idx_notes_owner_created,priority:2,sort:desc" bson:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false" bson:"updated_at"`
}

// TableName provides the explicit table binding for GORM.
func (Note) TableName() string {
	return CollectionName
}
