package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/jotter/internal/auth"
	"github.com/MarcoPoloResearchLab/jotter/internal/logging"
	"github.com/MarcoPoloResearchLab/jotter/internal/notes"
	"github.com/MarcoPoloResearchLab/jotter/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const identityContextKey = "jotter_identity"

var (
	errMissingAuthenticator = errors.New("authenticator dependency required")
	errMissingAuthService   = errors.New("auth service dependency required")
	errMissingNotesService  = errors.New("notes service dependency required")
)

// Authenticator resolves an Authorization header into the caller identity.
type Authenticator interface {
	Authenticate(ctx context.Context, authorizationHeader string) (auth.Identity, error)
}

// AuthService registers and signs in users.
type AuthService interface {
	Register(ctx context.Context, request users.RegisterRequest) (users.Session, error)
	Login(ctx context.Context, email, password string) (users.Session, error)
}

// NotesService is the owner-scoped note contract.
type NotesService interface {
	Create(ctx context.Context, ownerID notes.UserID, content notes.Content) (notes.Note, error)
	List(ctx context.Context, ownerID notes.UserID) ([]notes.Note, error)
	Update(ctx context.Context, ownerID notes.UserID, rawNoteID string, content notes.Content) (notes.Note, error)
	Delete(ctx context.Context, ownerID notes.UserID, rawNoteID string) error
}

// ClientRegistrar mounts the browser client on the router.
type ClientRegistrar func(routes gin.IRoutes) error

type Dependencies struct {
	Authenticator  Authenticator
	AuthService    AuthService
	NotesService   NotesService
	Logger         *zap.Logger
	AllowedOrigins []string
	Client         ClientRegistrar
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Authenticator == nil {
		return nil, errMissingAuthenticator
	}
	if deps.AuthService == nil {
		return nil, errMissingAuthService
	}
	if deps.NotesService == nil {
		return nil, errMissingNotesService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.RequestLogger(logger))
	router.Use(corsMiddleware(deps.AllowedOrigins))

	handler := &httpHandler{
		authenticator: deps.Authenticator,
		authService:   deps.AuthService,
		notesService:  deps.NotesService,
		logger:        logger,
	}

	router.GET("/healthz", handler.handleHealth)

	authRoutes := router.Group("/api/auth")
	authRoutes.POST("/register", handler.handleRegister)
	authRoutes.POST("/login", handler.handleLogin)
	authRoutes.GET("/me", handler.authorizeRequest, handler.handleMe)

	noteRoutes := router.Group("/api/notes")
	noteRoutes.Use(handler.authorizeRequest)
	noteRoutes.POST("", handler.handleCreateNote)
	noteRoutes.GET("", handler.handleListNotes)
	noteRoutes.PUT("/:id", handler.handleUpdateNote)
	noteRoutes.DELETE("/:id", handler.handleDeleteNote)

	if deps.Client != nil {
		if err := deps.Client(router); err != nil {
			return nil, err
		}
	}

	return router, nil
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	cfg.AllowAllOrigins = len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}

type httpHandler struct {
	authenticator Authenticator
	authService   AuthService
	notesService  NotesService
	logger        *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	identity, err := h.authenticator.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingToken):
			abortWithError(c, http.StatusUnauthorized, "No token, authorization denied", "auth.missing_token")
		case errors.Is(err, auth.ErrInvalidToken):
			if errors.Is(err, auth.ErrTokenExpired) {
				h.logger.Info("token validation failed", zap.String("path", c.FullPath()), zap.Error(err))
			} else {
				h.logger.Warn("token validation failed", zap.String("path", c.FullPath()), zap.Error(err))
			}
			abortWithError(c, http.StatusUnauthorized, "Token is not valid", "auth.invalid_token")
		case errors.Is(err, auth.ErrUnknownUser):
			h.logger.Warn("token subject not found", zap.String("path", c.FullPath()))
			abortWithError(c, http.StatusUnauthorized, "User not found", "auth.unknown_user")
		default:
			h.logger.Error("identity resolution failed", zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, "Server Error", errorCode(err, "auth.resolve_failed"))
		}
		return
	}
	c.Set(identityContextKey, identity)
	c.Next()
}

func identityFromContext(c *gin.Context) (auth.Identity, bool) {
	value, exists := c.Get(identityContextKey)
	if !exists {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	return identity, ok && identity.UserID != ""
}
