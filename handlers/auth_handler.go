package handlers

import (
	"github.com/gin-gonic/gin"

	"knowledge-base/helper"
	"knowledge-base/models"
	"knowledge-base/services"
)

// AuthHandler exposes the identity provider over REST. Tokens it issues
// are the bearer credentials accepted by the GraphQL endpoint.
type AuthHandler struct {
	authService services.AuthService
	userService services.UserService
	Helper      *helper.HTTPHelper
}

func NewAuthHandler(authService services.AuthService, userService services.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		Helper:      &helper.HTTPHelper{},
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBadRequest(c, "invalid request body", err.Error())
		return
	}

	response, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		h.Helper.SendAPIError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Register success", response)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBadRequest(c, "invalid request body", err.Error())
		return
	}

	response, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.Helper.SendAPIError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Login success", response)
}

// Profile returns the caller resolved by middleware.Authenticate.
func (h *AuthHandler) Profile(c *gin.Context) {
	user, err := h.userService.Me(c.Request.Context(), models.IdentityFromContext(c.Request.Context()))
	if err != nil {
		h.Helper.SendAPIError(c, err)
		return
	}
	if user == nil {
		h.Helper.SendUnauthorizedError(c, "authentication required", h.Helper.EmptyJsonMap())
		return
	}

	h.Helper.SendSuccess(c, "Profile loaded", user)
}
