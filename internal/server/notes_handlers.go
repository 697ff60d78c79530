package server

import (
	"errors"
	"net/http"

	"github.com/MarcoPoloResearchLab/jotter/internal/notes"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type noteRequestPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (p noteRequestPayload) content() notes.Content {
	return notes.Content{Title: p.Title, Description: p.Description}
}

func (h *httpHandler) handleCreateNote(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	var request noteRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", "notes.create.invalid_request")
		return
	}

	note, err := h.notesService.Create(c.Request.Context(), ownerID, request.content())
	if err != nil {
		h.respondNoteError(c, err, "notes.create.failed")
		return
	}

	c.JSON(http.StatusCreated, noteResponse{Success: true, Message: "Note Created Successfully", Note: newNotePayload(note)})
}

func (h *httpHandler) handleListNotes(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	items, err := h.notesService.List(c.Request.Context(), ownerID)
	if err != nil {
		h.respondNoteError(c, err, "notes.list.failed")
		return
	}

	response := noteListResponse{Success: true, Notes: make([]notePayload, 0, len(items))}
	for _, note := range items {
		response.Notes = append(response.Notes, newNotePayload(note))
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleUpdateNote(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	var request noteRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", "notes.update.invalid_request")
		return
	}

	note, err := h.notesService.Update(c.Request.Context(), ownerID, c.Param("id"), request.content())
	if err != nil {
		h.respondNoteError(c, err, "notes.update.failed")
		return
	}

	c.JSON(http.StatusOK, noteResponse{Success: true, Message: "Note updated successfully", Note: newNotePayload(note)})
}

func (h *httpHandler) handleDeleteNote(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}

	if err := h.notesService.Delete(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		h.respondNoteError(c, err, "notes.delete.failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Note deleted successfully"})
}

func (h *httpHandler) ownerID(c *gin.Context) (notes.UserID, bool) {
	identity, ok := identityFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "No token, authorization denied", "auth.missing_token")
		return "", false
	}
	ownerID, err := notes.NewUserID(identity.UserID)
	if err != nil {
		h.logger.Error("authenticated identity rejected", zap.String("user_id", identity.UserID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Server Error", "notes.invalid_owner")
		return "", false
	}
	return ownerID, true
}

func (h *httpHandler) respondNoteError(c *gin.Context, err error, fallbackCode string) {
	code := errorCode(err, fallbackCode)
	switch {
	case errors.Is(err, notes.ErrValidation):
		respondError(c, http.StatusBadRequest, "Title and Description are required", code)
	case errors.Is(err, notes.ErrInvalidNoteID):
		respondError(c, http.StatusBadRequest, "Invalid note id", code)
	case errors.Is(err, notes.ErrNoteNotFound):
		respondError(c, http.StatusNotFound, "Note not found", code)
	default:
		respondError(c, http.StatusInternalServerError, "Server Error", code)
	}
}
