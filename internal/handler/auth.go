package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/airlink-cl/airlink-api/internal/model"
	"github.com/airlink-cl/airlink-api/internal/repository"
	"github.com/airlink-cl/airlink-api/internal/utils"
)

// UserStore is the user access the auth handler needs. *repository.UserRepo
// satisfies it.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// AuthHandler serves registration, login and the authenticated profile.
// Sessions are stateless JWTs; there is no refresh or logout endpoint.
type AuthHandler struct {
	Users      UserStore
	JWTSecret  string
	AccessTTL  int // minutes
	BcryptCost int
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users UserStore, jwtSecret string, accessTTLMin, bcryptCost int) *AuthHandler {
	if users == nil {
		panic("nil store passed to NewAuthHandler")
	}
	return &AuthHandler{Users: users, JWTSecret: jwtSecret, AccessTTL: accessTTLMin, BcryptCost: bcryptCost}
}

type credentialsBody struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /auth/register. New accounts get the client role;
// admins are promoted out of band.
func (h *AuthHandler) Register(c echo.Context) error {
	var body credentialsBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cuerpo de solicitud inválido"})
	}
	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	if body.Name == "" || body.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nombre y email son requeridos"})
	}
	if !strings.Contains(body.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email inválido"})
	}
	if len(body.Password) < utils.MinPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "la contraseña debe tener al menos 8 caracteres"})
	}

	hash, err := utils.HashPassword(body.Password, h.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "no se pudo crear el usuario"})
	}
	u := &model.User{
		Name:         body.Name,
		Email:        body.Email,
		PasswordHash: hash,
		RoleID:       model.RoleClient,
	}
	if err := h.Users.Create(c.Request().Context(), u); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "el email ya está registrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return h.tokenResponse(c, http.StatusCreated, u)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var body credentialsBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cuerpo de solicitud inválido"})
	}
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	if body.Email == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email y password son requeridos"})
	}
	u, err := h.Users.GetByEmail(c.Request().Context(), body.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "credenciales inválidas"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !utils.VerifyPassword(u.PasswordHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "credenciales inválidas"})
	}
	return h.tokenResponse(c, http.StatusOK, u)
}

// Me handles GET /auth/me behind JWT middleware.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	u, err := h.Users.GetByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "usuario no encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, userJSON(u))
}

func (h *AuthHandler) tokenResponse(c echo.Context, status int, u *model.User) error {
	tok, err := utils.NewAccessToken(h.JWTSecret, u.ID, model.RoleName(u.RoleID), h.AccessTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "no se pudo emitir el token"})
	}
	return c.JSON(status, echo.Map{
		"token":   tok.Token,
		"expira":  tok.Exp.Format(time.RFC3339),
		"usuario": userJSON(u),
	})
}

func userJSON(u *model.User) echo.Map {
	return echo.Map{
		"idUsuario":  u.ID,
		"nombre":     u.Name,
		"email":      u.Email,
		"rol":        model.RoleName(u.RoleID),
		"verificado": u.Verified,
	}
}
