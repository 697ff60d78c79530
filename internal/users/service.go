package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarcoPoloResearchLab/jotter/internal/auth"
	"go.uber.org/zap"
)

var (
	// ErrValidation indicates a required registration or login field was empty.
	ErrValidation = errors.New("users: validation failed")
	// ErrPasswordTooLong indicates the password cannot be hashed.
	ErrPasswordTooLong = errors.New("users: password too long")
	// ErrInvalidCredentials is the single externally visible login failure.
	ErrInvalidCredentials = errors.New("users: invalid credentials")

	errMissingStore       = errors.New("user store is required")
	errMissingHasher      = errors.New("password hasher is required")
	errMissingTokenIssuer = errors.New("token issuer is required")
	errMissingIDProvider  = errors.New("id provider is required")
)

const (
	opServiceNew     = "users.service.new"
	opRegister       = "users.register"
	opLogin          = "users.login"
	opLookupIdentity = "users.lookup_identity"
)

// ServiceError carries a dotted operation code alongside the cause.
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

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: operation + "." + reason, err: cause}
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

// TokenIssuer issues session tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (auth.IssuedToken, error)
}

// IDProvider yields new user identifiers.
type IDProvider interface {
	NewID() (string, error)
}

type ServiceConfig struct {
	Store      Store
	Hasher     PasswordHasher
	Tokens     TokenIssuer
	IDProvider IDProvider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Service implements registration, login and identity resolution.
type Service struct {
	store      Store
	hasher     PasswordHasher
	tokens     TokenIssuer
	idProvider IDProvider
	clock      func() time.Time
	logger     *zap.Logger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, newServiceError(opServiceNew, "missing_store", errMissingStore)
	}
	if cfg.Hasher == nil {
		return nil, newServiceError(opServiceNew, "missing_hasher", errMissingHasher)
	}
	if cfg.Tokens == nil {
		return nil, newServiceError(opServiceNew, "missing_token_issuer", errMissingTokenIssuer)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      cfg.Store,
		hasher:     cfg.Hasher,
		tokens:     cfg.Tokens,
		idProvider: cfg.IDProvider,
		clock:      clock,
		logger:     logger,
	}, nil
}

// RegisterRequest holds the registration form.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// Session is the outcome of a successful registration or login.
type Session struct {
	User  Profile
	Token auth.IssuedToken
}

// Register creates an account for an unused email and signs the new user in.
func (s *Service) Register(ctx context.Context, request RegisterRequest) (Session, error) {
	name := normalize(request.Name)
	email := normalize(request.Email)
	switch {
	case name == "":
		return Session{}, newServiceError(opRegister, "missing_name", ErrValidation)
	case email == "":
		return Session{}, newServiceError(opRegister, "missing_email", ErrValidation)
	case normalize(request.Password) == "":
		return Session{}, newServiceError(opRegister, "missing_password", ErrValidation)
	}

	_, err := s.store.FindByEmail(ctx, email)
	if err == nil {
		return Session{}, newServiceError(opRegister, "duplicate_email", ErrDuplicateEmail)
	}
	if !errors.Is(err, ErrUserNotFound) {
		s.logError(opRegister, "lookup_failed", err)
		return Session{}, newServiceError(opRegister, "lookup_failed", err)
	}

	hash, err := s.hasher.Hash(request.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return Session{}, newServiceError(opRegister, "password_too_long", fmt.Errorf("%w: %w", ErrValidation, ErrPasswordTooLong))
		}
		s.logError(opRegister, "hash_failed", err)
		return Session{}, newServiceError(opRegister, "hash_failed", err)
	}

	userID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opRegister, "id_generation_failed", err)
		return Session{}, newServiceError(opRegister, "id_generation_failed", err)
	}

	now := s.clock().UTC()
	user := User{
		UserID:       userID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return Session{}, newServiceError(opRegister, "duplicate_email", ErrDuplicateEmail)
		}
		s.logError(opRegister, "insert_failed", err)
		return Session{}, newServiceError(opRegister, "insert_failed", err)
	}

	return s.openSession(opRegister, user)
}

// Login verifies the credentials and issues a token.
//
// An unknown email and a wrong password are logged with distinct reasons but
// return the same error code so callers cannot probe for registered emails.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalize(email)
	if email == "" || password == "" {
		return Session{}, newServiceError(opLogin, "missing_credentials", ErrValidation)
	}

	user, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		s.logger.Info("login rejected", zap.String("reason", "user_not_found"))
		return Session{}, newServiceError(opLogin, "invalid_credentials", fmt.Errorf("%w: %w", ErrInvalidCredentials, ErrUserNotFound))
	}
	if err != nil {
		s.logError(opLogin, "lookup_failed", err)
		return Session{}, newServiceError(opLogin, "lookup_failed", err)
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login rejected", zap.String("reason", "password_mismatch"), zap.String("user_id", user.UserID))
			return Session{}, newServiceError(opLogin, "invalid_credentials", fmt.Errorf("%w: %w", ErrInvalidCredentials, err))
		}
		s.logError(opLogin, "verify_failed", err, zap.String("user_id", user.UserID))
		return Session{}, newServiceError(opLogin, "verify_failed", err)
	}

	return s.openSession(opLogin, user)
}

// LookupIdentity resolves a token subject into the caller identity.
func (s *Service) LookupIdentity(ctx context.Context, userID string) (auth.Identity, error) {
	user, err := s.store.FindByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return auth.Identity{}, auth.ErrUnknownUser
	}
	if err != nil {
		s.logError(opLookupIdentity, "lookup_failed", err, zap.String("user_id", userID))
		return auth.Identity{}, newServiceError(opLookupIdentity, "lookup_failed", err)
	}
	return auth.Identity{UserID: user.UserID, Name: user.Name, Email: user.Email}, nil
}

func (s *Service) openSession(operation string, user User) (Session, error) {
	token, err := s.tokens.Issue(user.UserID)
	if err != nil {
		s.logError(operation, "token_issue_failed", err, zap.String("user_id", user.UserID))
		return Session{}, newServiceError(operation, "token_issue_failed", err)
	}
	return Session{User: user.Profile(), Token: token}, nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
		zap.Error(err),
	}
	s.logger.Error("users service error", append(attrs, fields...)...)
}
