package api

import (
	"context"
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
	"storefront/internal/user/entity"
)

// UserService is the application surface the handlers need.
type UserService interface {
	GetUserByID(ctx context.Context, id int) (*entity.User, error)
	Register(ctx context.Context, name, email, password string) (*entity.User, error)
	RegisterAdmin(ctx context.Context, adminToken, name, email, password string) (*entity.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ListUsers(ctx context.Context) ([]*entity.User, error)
}

type UserHandler struct {
	userService UserService
}

// NewUserHandler creates a new instance of UserHandler.
func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Register wires the user routes into the echo instance.
func (h *UserHandler) Register(e *echo.Echo) {
	e.POST("/users/login", h.Login)
	e.POST("/users/register", h.RegisterUser)
	e.POST("/users/register/admin", h.RegisterAdmin)
	e.GET("/users/:id", h.GetUserByID)
	e.GET("/users", h.ListUsers)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GetUserByID retrieves a user by ID --> /users/:id
// The order service probes this route for user existence via the status code.
func (h *UserHandler) GetUserByID(c echo.Context) error {
	id := c.Param("id")
	idInt, err := strconv.Atoi(id)
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	user, err := h.userService.GetUserByID(c.Request().Context(), idInt)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return c.JSON(404, map[string]string{"error": "User not found"})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, user)
}

// RegisterUser creates a new user --> /users/register
func (h *UserHandler) RegisterUser(c echo.Context) error {
	req := registerRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(400, map[string]string{"error": "name, email and password are required"})
	}

	user, err := h.userService.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, entity.ErrEmailAlreadyTaken) {
			return c.JSON(400, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, user)
}

// RegisterAdmin creates a new admin user --> /users/register/admin
func (h *UserHandler) RegisterAdmin(c echo.Context) error {
	req := registerRequest{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(400, map[string]string{"error": "name, email and password are required"})
	}

	token := c.Request().Header.Get("Authorization")
	user, err := h.userService.RegisterAdmin(c.Request().Context(), token, req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return c.JSON(401, map[string]string{"error": "Unauthorized"})
		}
		if errors.Is(err, entity.ErrEmailAlreadyTaken) {
			return c.JSON(400, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, user)
}

// Login logs in a user and returns a signed token --> /users/login
func (h *UserHandler) Login(c echo.Context) error {
	login := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{}
	if err := c.Bind(&login); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	token, err := h.userService.Login(c.Request().Context(), login.Email, login.Password)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidCredentials) {
			return c.JSON(401, map[string]string{"error": err.Error()})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]string{"token": token})
}

// ListUsers returns all users --> /users
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, users)
}
