package auth

import (
	"errors"
	"net/http"

	"parkservices/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", h.Register)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	authGroup := protected.Group("/auth")
	{
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", h.GetMe)
	}
}

// Login starts a session for a phone/password pair.
// @Summary		Login
// @Description	Verifies the credentials, stores the user as current and returns a JWT.
// @Tags		Auth
// @Param		request	body	LoginRequest	true	"phone and password"
// @Success		200	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}
// @Failure		401	{object}	map[string]interface{}
// @Router		/auth/login [POST]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "请输入手机号和密码")
		return
	}

	res, err := h.service.Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid phone or password")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to login")
		return
	}

	response.Success(c, http.StatusOK, SessionResponse{User: res.User, Token: res.Token, NextPage: res.NextPage})
}

// Register creates an account and logs the user in.
// @Summary		Register
// @Tags		Auth
// @Param		request	body	RegisterRequest	true	"registration form"
// @Success		201	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}
// @Failure		409	{object}	map[string]interface{}
// @Router		/auth/register [POST]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "请填写完整信息")
		case errors.Is(err, ErrPasswordMismatch):
			response.Error(c, http.StatusBadRequest, "PASSWORD_MISMATCH", "两次密码不一致")
		case errors.Is(err, ErrInvalidPhone):
			response.Error(c, http.StatusBadRequest, "INVALID_PHONE", "请输入正确的手机号")
		case errors.Is(err, ErrInvalidRole):
			response.Error(c, http.StatusBadRequest, "INVALID_ROLE", "Unknown role")
		case errors.Is(err, ErrPhoneAlreadyExists):
			response.Error(c, http.StatusConflict, "PHONE_EXISTS", "This phone is already registered")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to register")
		}
		return
	}

	response.Success(c, http.StatusCreated, SessionResponse{User: res.User, Token: res.Token, NextPage: res.NextPage})
}

func (h *Handler) Logout(c *gin.Context) {
	next, err := h.service.Logout(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "LOGOUT_FAILED", "Failed to logout")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"next_page": next})
}

// GetMe returns the current session user.
func (h *Handler) GetMe(c *gin.Context) {
	u := h.service.Current(c.Request.Context())
	if u == nil {
		response.Error(c, http.StatusUnauthorized, "NO_SESSION", "No user is logged in")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u})
}
