package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/SebbyH09/VFPInventory.github.io/internal/domain"
	"github.com/SebbyH09/VFPInventory.github.io/internal/repository"
	stderrors "github.com/SebbyH09/VFPInventory.github.io/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	users      repository.UserRepository
	jwtManager *JWTManager
	logger     *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users repository.UserRepository, jwtManager *JWTManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:      users,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// RegisterRequest represents the registration request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email" example:"sam@lab.example"`
	Name     string `json:"name" example:"Sam"`
	Password string `json:"password" binding:"required,min=8" example:"correct-horse"`
}

// LoginRequest represents the login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"sam@lab.example"`
	Password string `json:"password" binding:"required" example:"correct-horse"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token     string    `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Type      string    `json:"type" example:"Bearer"`
	ExpiresIn int       `json:"expires_in" example:"600"` // 10 minutes in seconds
	ExpiresAt time.Time `json:"expires_at" example:"2024-01-15T12:00:00Z"`
}

// Register handles POST /registration
// @Summary      Register a new account
// @Description  Creates an account with a bcrypt-hashed password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RegisterRequest  true  "Account details"
// @Success      201      {object}  map[string]string
// @Failure      400      {object}  errors.StandardError
// @Failure      409      {object}  errors.StandardError  "Email already registered"
// @Router       /registration [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid registration request", zap.Error(err))
		c.Error(stderrors.NewValidationError("invalid request", "email or password"))
		c.Abort()
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("Failed to hash password", zap.Error(err))
		c.Error(stderrors.NewInternalError("failed to register", err))
		c.Abort()
		return
	}

	user := domain.NewUser(req.Email, req.Name, string(hash))
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			c.Error(stderrors.NewDuplicateEmail(req.Email))
			c.Abort()
			return
		}
		h.logger.Error("Failed to create user", zap.Error(err))
		c.Error(stderrors.NewDatabaseError("create user", err))
		c.Abort()
		return
	}

	h.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
	)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
	})
}

// Login handles POST /login
// @Summary      Login and get JWT token
// @Description  Authenticates against the user store and returns a token valid for 10 minutes
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "Login credentials"
// @Success      200      {object}  LoginResponse
// @Failure      400      {object}  errors.StandardError
// @Failure      401      {object}  errors.StandardError  "Invalid credentials"
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid login request", zap.Error(err))
		c.Error(stderrors.NewValidationError("invalid request", "email or password"))
		c.Abort()
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			h.logger.Warn("Login for unknown email", zap.String("email", req.Email))
			c.JSON(http.StatusUnauthorized, stderrors.NewUnauthorized("invalid credentials", "email or password incorrect"))
			return
		}
		h.logger.Error("Failed to look up user", zap.Error(err))
		c.Error(stderrors.NewDatabaseError("get user", err))
		c.Abort()
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.logger.Warn("Invalid credentials", zap.String("email", req.Email))
		c.JSON(http.StatusUnauthorized, stderrors.NewUnauthorized("invalid credentials", "email or password incorrect"))
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID.String(), user.Email)
	if err != nil {
		h.logger.Error("Failed to generate token", zap.Error(err))
		c.Error(stderrors.NewInternalError("failed to generate token", err))
		c.Abort()
		return
	}

	expiresAt := time.Now().Add(10 * time.Minute)
	response := LoginResponse{
		Token:     token,
		Type:      "Bearer",
		ExpiresIn: 600, // 10 minutes in seconds
		ExpiresAt: expiresAt,
	}

	h.logger.Info("User logged in successfully",
		zap.String("email", user.Email),
		zap.Time("expires_at", expiresAt),
	)

	c.JSON(http.StatusOK, response)
}
