package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/geocoder89/todohub/internal/service"
)

type AuthUseCase interface {
	Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput) (service.AuthResult, error)
	Logout(ctx context.Context, token string) error
}

type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	auth   AuthUseCase
	cookie CookieConfig
	log    *slog.Logger
}

func NewAuthHandler(auth AuthUseCase, cookie CookieConfig, log *slog.Logger) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "sid"
	}
	if log == nil {
		log = slog.Default()
	}

	return &AuthHandler{auth: auth, cookie: cookie, log: log}
}

// Field presence is checked by the service so that its messages and their
// order apply; binding only enforces shape and sane upper bounds.
type RegisterRequest struct {
	Username        string `json:"username" binding:"max=256"`
	Password        string `json:"password" binding:"max=256"`
	ConfirmPassword string `json:"confirmPassword" binding:"max=256"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"max=256"`
	Password string `json:"password" binding:"max=256"`
}

type authResponse struct {
	User      userResponse `json:"user"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

func newAuthResponse(res service.AuthResult) authResponse {
	return authResponse{
		User: userResponse{
			ID:        res.User.ID,
			Username:  res.User.Username,
			CreatedAt: res.User.CreatedAt,
		},
		ExpiresAt: res.ExpiresAt,
	}
}

// formData echoes the username back so a client can refill its form.
// Passwords are never echoed.
func formData(username string) gin.H {
	return gin.H{"formData": gin.H{"username": username}}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.auth.Register(cctx, service.RegisterInput{
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		RespondServiceError(ctx, h.log, err, formData(req.Username))
		return
	}

	h.setSessionCookie(ctx, res.Token, res.ExpiresAt)
	ctx.JSON(http.StatusCreated, newAuthResponse(res))
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.auth.Login(cctx, service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		RespondServiceError(ctx, h.log, err, formData(req.Username))
		return
	}

	h.setSessionCookie(ctx, res.Token, res.ExpiresAt)
	ctx.JSON(http.StatusOK, newAuthResponse(res))
}

// Logout always clears the cookie, even when the server-side session could
// not be destroyed.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	raw, err := ctx.Cookie(h.cookie.Name)

	if err == nil && raw != "" {
		cctx, cancel := config.WithTimeout(3 * time.Second)
		defer cancel()

		if err := h.auth.Logout(cctx, raw); err != nil {
			h.log.ErrorContext(ctx.Request.Context(), "logout: destroy session failed",
				"err", err,
				"request_id", requestIDFrom(ctx),
			)
		}
	}

	h.clearSessionCookie(ctx)
	ctx.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	id, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondServiceError(ctx, h.log, service.ErrUnauthenticated, nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"userId":   id.UserID,
		"username": id.Username,
	})
}

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, raw string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteStrictMode)

	ctx.SetCookie(
		h.cookie.Name,
		raw,
		maxAge,
		"/",
		"",
		h.cookie.Secure,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(
		h.cookie.Name,
		"",
		-1,
		"/",
		"",
		h.cookie.Secure,
		true,
	)
}
