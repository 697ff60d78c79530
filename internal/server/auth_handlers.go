package server

import (
	"errors"
	"net/http"

	"github.com/MarcoPoloResearchLab/jotter/internal/users"
	"github.com/gin-gonic/gin"
)

type registerRequestPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequestPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request registerRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", "users.register.invalid_request")
		return
	}

	session, err := h.authService.Register(c.Request.Context(), users.RegisterRequest{
		Name:     request.Name,
		Email:    request.Email,
		Password: request.Password,
	})
	if err != nil {
		code := errorCode(err, "users.register.failed")
		switch {
		case errors.Is(err, users.ErrPasswordTooLong):
			respondError(c, http.StatusBadRequest, "Password is too long", code)
		case errors.Is(err, users.ErrValidation):
			respondError(c, http.StatusBadRequest, "Name, email and password are required", code)
		case errors.Is(err, users.ErrDuplicateEmail):
			respondError(c, http.StatusBadRequest, "User already exists", code)
		default:
			respondError(c, http.StatusInternalServerError, "Registration failed", code)
		}
		return
	}

	c.JSON(http.StatusCreated, newSessionResponse("Registration successful", session))
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", "users.login.invalid_request")
		return
	}

	session, err := h.authService.Login(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		code := errorCode(err, "users.login.failed")
		switch {
		case errors.Is(err, users.ErrValidation):
			respondError(c, http.StatusBadRequest, "Email and password are required", code)
		case errors.Is(err, users.ErrInvalidCredentials):
			respondError(c, http.StatusUnauthorized, "Invalid email or password", code)
		default:
			respondError(c, http.StatusInternalServerError, "Login failed, try again", code)
		}
		return
	}

	c.JSON(http.StatusOK, newSessionResponse("Login successful", session))
}

func (h *httpHandler) handleMe(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "No token, authorization denied", "auth.missing_token")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    userPayload{ID: identity.UserID, Name: identity.Name, Email: identity.Email},
	})
}
