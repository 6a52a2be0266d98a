package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/runbridge/runbridge/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthHandler exchanges admin credentials for a JWT. Credentials come from
// configuration; the password is bcrypt-hashed once at construction so the
// plaintext never sits on the handler.
type AuthHandler struct {
	logger       *slog.Logger
	username     string
	passwordHash []byte
	jwtSecret    string
	expiresIn    time.Duration
}

func NewAuthHandler(log *slog.Logger, username, password, jwtSecret string, expiresIn time.Duration) (*AuthHandler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &AuthHandler{
		logger:       log.With(slog.String("handler", "auth")),
		username:     username,
		passwordHash: hash,
		jwtSecret:    jwtSecret,
		expiresIn:    expiresIn,
	}, nil
}

func (h *AuthHandler) Register(e *echo.Echo) {
	e.POST("/auth/login", h.Login)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	usernameOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.username)) == 1
	passwordErr := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password))
	if !usernameOK || passwordErr != nil {
		h.logger.Warn("login rejected", slog.String("username", req.Username))
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	token, expiresAt, err := auth.GenerateToken(h.username, h.jwtSecret, h.expiresIn)
	if err != nil {
		h.logger.Error("issue token", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}

	return c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt})
}
