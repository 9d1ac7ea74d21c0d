package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/geocoder89/todohub/internal/domain/session"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/observability"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 30
	minPasswordLen = 6

	// compared against when the username is unknown
	dummyPassword = "todohub-timing-equaliser"
)

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) (bool, error)
}

type SessionIssuer interface {
	Create(ctx context.Context, userID, username string) (session.Session, error)
	Destroy(ctx context.Context, raw string) error
}

type RegisterInput struct {
	Username        string
	Password        string
	ConfirmPassword string
}

type LoginInput struct {
	Username string
	Password string
}

// AuthResult is what a successful register/login hands back. Token goes into
// the session cookie and nowhere else.
type AuthResult struct {
	User      user.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	users    UserStore
	hasher   PasswordHasher
	sessions SessionIssuer
	log      *slog.Logger
	prom     *observability.Prom
	tracer   trace.Tracer

	// compared against for unknown usernames
	dummyHash string
}

// NewAuthService hashes the timing-equaliser password up front so the first
// unknown-user login costs the same single bcrypt comparison as every other.
func NewAuthService(users UserStore, hasher PasswordHasher, sessions SessionIssuer, log *slog.Logger) (*AuthService, error) {
	if log == nil {
		log = slog.Default()
	}

	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}

	return &AuthService{
		users:     users,
		hasher:    hasher,
		sessions:  sessions,
		log:       log,
		tracer:    otel.Tracer("todohub/service"),
		dummyHash: dummy,
	}, nil
}

func (s *AuthService) WithMetrics(p *observability.Prom) *AuthService {
	s.prom = p
	return s
}

func validateRegistration(in RegisterInput) error {
	username := strings.TrimSpace(in.Username)

	switch {
	case in.Username == "" || in.Password == "" || in.ConfirmPassword == "":
		return invalid(CodeAllFieldsRequired, "", "All fields are required")
	case utf8.RuneCountInString(username) < minUsernameLen:
		return invalid(CodeUsernameTooShort, "username", "Username must be at least 3 characters long")
	case utf8.RuneCountInString(username) > maxUsernameLen:
		return invalid(CodeUsernameTooLong, "username", "Username cannot exceed 30 characters")
	case utf8.RuneCountInString(in.Password) < minPasswordLen:
		return invalid(CodePasswordTooShort, "password", "Password must be at least 6 characters long")
	case in.Password != in.ConfirmPassword:
		return invalid(CodePasswordMismatch, "confirmPassword", "Passwords do not match")
	}

	return nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (res AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Register")
	defer func() { endSpan(span, err) }()

	username := strings.TrimSpace(in.Username)
	span.SetAttributes(attribute.String("auth.username", username))

	defer func() { s.record(ctx, "register", username, err) }()

	if err = validateRegistration(in); err != nil {
		return AuthResult{}, err
	}

	_, err = s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return AuthResult{}, ErrUsernameExists
	case !errors.Is(err, user.ErrNotFound):
		return AuthResult{}, internal("lookup user", err)
	}

	u := user.New(username)
	if err = u.SetPassword(s.hasher, in.Password); err != nil {
		return AuthResult{}, internal("hash password", err)
	}

	u, err = s.users.Create(ctx, u)
	if err != nil {
		// lost the race against a concurrent registration
		if errors.Is(err, user.ErrUsernameTaken) {
			return AuthResult{}, ErrUsernameExists
		}
		return AuthResult{}, internal("create user", err)
	}

	return s.issue(ctx, u)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (res AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	defer func() { endSpan(span, err) }()

	username := strings.TrimSpace(in.Username)
	span.SetAttributes(attribute.String("auth.username", username))

	defer func() { s.record(ctx, "login", username, err) }()

	if in.Username == "" || in.Password == "" {
		return AuthResult{}, invalid(CodeCredentialsRequired, "", "Username and password are required")
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return AuthResult{}, internal("lookup user", err)
		}

		// burn the same bcrypt time as a real comparison
		_, _ = s.hasher.Verify(in.Password, s.dummyHash)
		return AuthResult{}, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(in.Password, u.PasswordHash)
	if err != nil {
		return AuthResult{}, internal("verify password", err)
	}
	if !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.issue(ctx, u)
}

// Logout destroys the session behind token. An empty token is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "AuthService.Logout")

	err := s.sessions.Destroy(ctx, token)
	if err != nil {
		err = internal("destroy session", err)
	}
	endSpan(span, err)

	s.record(ctx, "logout", "", err)

	return err
}

func (s *AuthService) issue(ctx context.Context, u user.User) (AuthResult, error) {
	sess, err := s.sessions.Create(ctx, u.ID, u.Username)
	if err != nil {
		return AuthResult{}, internal("create session", err)
	}

	return AuthResult{User: u, Token: sess.Token, ExpiresAt: sess.ExpiresAt}, nil
}

func (s *AuthService) record(ctx context.Context, op, username string, err error) {
	result := "ok"
	level := slog.LevelInfo

	switch {
	case err == nil:
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidCredentials):
		result = "invalid"
	case errors.Is(err, ErrUsernameExists):
		result = "conflict"
	default:
		result = "error"
		level = slog.LevelError
	}

	s.prom.ObserveAuth(op, result)

	attrs := []any{"result", result}
	if username != "" {
		attrs = append(attrs, "username", username)
	}
	if err != nil {
		attrs = append(attrs, "err", err)
	}
	s.log.Log(ctx, level, "auth."+op, attrs...)
}

func endSpan(span trace.Span, err error) {
	if err != nil && errors.Is(err, ErrInternal) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
