package server

import (
	"errors"
	"time"

	"github.com/MarcoPoloResearchLab/jotter/internal/notes"
	"github.com/MarcoPoloResearchLab/jotter/internal/users"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type userPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type sessionResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expiresIn"`
	User      userPayload `json:"user"`
}

type notePayload struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type noteResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Note    notePayload `json:"note"`
}

type noteListResponse struct {
	Success bool          `json:"success"`
	Notes   []notePayload `json:"notes"`
}

func newUserPayload(profile users.Profile) userPayload {
	return userPayload{ID: profile.ID, Name: profile.Name, Email: profile.Email}
}

func newSessionResponse(message string, session users.Session) sessionResponse {
	return sessionResponse{
		Success:   true,
		Message:   message,
		Token:     session.Token.Value,
		ExpiresIn: session.Token.ExpiresIn(),
		User:      newUserPayload(session.User),
	}
}

func newNotePayload(note notes.Note) notePayload {
	return notePayload{
		ID:          note.NoteID,
		Title:       note.Title,
		Description: note.Description,
		CreatedAt:   note.CreatedAt.UTC(),
		UpdatedAt:   note.UpdatedAt.UTC(),
	}
}

func respondError(c *gin.Context, status int, message, code string) {
	c.JSON(status, errorResponse{Success: false, Message: message, Error: code})
}

func abortWithError(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, errorResponse{Success: false, Message: message, Error: code})
}

// errorCode returns the dotted service code carried by err, or fallback.
func errorCode(err error, fallback string) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return fallback
}
