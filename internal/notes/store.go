package notes

import (
	"context"
	"time"
)

// Store persists notes. Every read and write is scoped by the owner id;
// a note owned by someone else behaves exactly like a missing note.
type Store interface {
	Insert(ctx context.Context, note Note) error
	ListByOwner(ctx context.Context, ownerID UserID) ([]Note, error)
	FindOwned(ctx context.Context, ownerID UserID, noteID NoteID) (Note, error)
	UpdateOwned(ctx context.Context, ownerID UserID, noteID NoteID, content Content, updatedAt time.Time) (Note, error)
	DeleteOwned(ctx context.Context, ownerID UserID, noteID NoteID) error
}
