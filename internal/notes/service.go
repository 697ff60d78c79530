package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingStore      = errors.New("note store is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew = "notes.service.new"
	opCreate     = "notes.create"
	opList       = "notes.list"
	opUpdate     = "notes.update"
	opDelete     = "notes.delete"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

type ServiceConfig struct {
	Store      Store
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

type IDProvider interface {
	NewID() (string, error)
}

// Service is the note CRUD contract. Every operation takes the owner id and
// only ever sees notes owned by it.
type Service struct {
	store      Store
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, newServiceError(opServiceNew, "missing_store", errMissingStore)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		store:      cfg.Store,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// Create persists a new note owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID UserID, content Content) (Note, error) {
	if err := s.ready(opCreate); err != nil {
		return Note{}, err
	}
	if ownerID == "" {
		return Note{}, newServiceError(opCreate, "missing_owner", ErrInvalidUserID)
	}
	normalized, err := content.normalized()
	if err != nil {
		return Note{}, newServiceError(opCreate, "validation_failed", err)
	}

	if s.idProvider == nil {
		s.logError(opCreate, "missing_id_provider", errMissingIDProvider)
		return Note{}, newServiceError(opCreate, "missing_id_provider", errMissingIDProvider)
	}
	noteID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opCreate, "id_generation_failed", err, zap.String("owner_id", ownerID.String()))
		return Note{}, newServiceError(opCreate, "id_generation_failed", err)
	}

	now := s.clock().UTC()
	note := Note{
		NoteID:      noteID,
		OwnerID:     ownerID.String(),
		Title:       normalized.Title,
		Description: normalized.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Insert(ctx, note); err != nil {
		s.logError(opCreate, "insert_failed", err, zap.String("owner_id", ownerID.String()))
		return Note{}, newServiceError(opCreate, "insert_failed", err)
	}
	return note, nil
}

// List returns the owner's notes, newest first. An owner without notes gets an empty slice.
func (s *Service) List(ctx context.Context, ownerID UserID) ([]Note, error) {
	if err := s.ready(opList); err != nil {
		return nil, err
	}
	if ownerID == "" {
		return nil, newServiceError(opList, "missing_owner", ErrInvalidUserID)
	}

	notes, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logError(opList, "query_failed", err, zap.String("owner_id", ownerID.String()))
		return nil, newServiceError(opList, "query_failed", err)
	}
	if notes == nil {
		notes = []Note{}
	}
	return notes, nil
}

// Update overwrites the title and description of an owned note.
//
// A malformed id fails before the lookup, and a missing or foreign note fails
// before content validation.
func (s *Service) Update(ctx context.Context, ownerID UserID, rawNoteID string, content Content) (Note, error) {
	if err := s.ready(opUpdate); err != nil {
		return Note{}, err
	}
	noteID, existing, err := s.loadOwned(ctx, opUpdate, ownerID, rawNoteID)
	if err != nil {
		return Note{}, err
	}
	normalized, err := content.normalized()
	if err != nil {
		return Note{}, newServiceError(opUpdate, "validation_failed", err)
	}

	updatedAt := s.clock().UTC()
	if updatedAt.Before(existing.CreatedAt) {
		updatedAt = existing.CreatedAt
	}
	note, err := s.store.UpdateOwned(ctx, ownerID, noteID, normalized, updatedAt)
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			return Note{}, newServiceError(opUpdate, "not_found", err)
		}
		s.logError(opUpdate, "update_failed", err,
			zap.String("owner_id", ownerID.String()),
			zap.String("note_id", noteID.String()))
		return Note{}, newServiceError(opUpdate, "update_failed", err)
	}
	return note, nil
}

// Delete permanently removes an owned note.
func (s *Service) Delete(ctx context.Context, ownerID UserID, rawNoteID string) error {
	if err := s.ready(opDelete); err != nil {
		return err
	}
	if ownerID == "" {
		return newServiceError(opDelete, "missing_owner", ErrInvalidUserID)
	}
	noteID, err := ParseNoteID(rawNoteID)
	if err != nil {
		return newServiceError(opDelete, "invalid_id", err)
	}
	if err := s.store.DeleteOwned(ctx, ownerID, noteID); err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			return newServiceError(opDelete, "not_found", err)
		}
		s.logError(opDelete, "delete_failed", err,
			zap.String("owner_id", ownerID.String()),
			zap.String("note_id", noteID.String()))
		return newServiceError(opDelete, "delete_failed", err)
	}
	return nil
}

func (s *Service) loadOwned(ctx context.Context, operation string, ownerID UserID, rawNoteID string) (NoteID, Note, error) {
	if ownerID == "" {
		return "", Note{}, newServiceError(operation, "missing_owner", ErrInvalidUserID)
	}
	noteID, err := ParseNoteID(rawNoteID)
	if err != nil {
		return "", Note{}, newServiceError(operation, "invalid_id", err)
	}
	note, err := s.store.FindOwned(ctx, ownerID, noteID)
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			return "", Note{}, newServiceError(operation, "not_found", err)
		}
		s.logError(operation, "query_failed", err,
			zap.String("owner_id", ownerID.String()),
			zap.String("note_id", noteID.String()))
		return "", Note{}, newServiceError(operation, "query_failed", err)
	}
	return noteID, note, nil
}

func (s *Service) ready(operation string) error {
	if s == nil || s.store == nil {
		s.logError(operation, "missing_store", errMissingStore)
		return newServiceError(operation, "missing_store", errMissingStore)
	}
	return nil
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil {
		return noOpLogger
	}
	if s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("notes service error", attrs...)
}
