package api

import (
	"net/http"

	"stakeforge/models"
	"stakeforge/service"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password" binding:"required"`
	Role           string `json:"role" binding:"required"`
	GitHubUsername string `json:"githubUsername"`
}

type loginRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password" binding:"required"`
	Role           string `json:"role" binding:"required"`
	GitHubUsername string `json:"githubUsername"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates an account and returns a signed token
func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondStatus(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Email, req.Password, models.Role(req.Role), req.GitHubUsername)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := GenerateToken(h.jwtSecret, user, h.tokenExpiry)
	if err != nil {
		respondStatus(c, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondCreated(c, "registered", authResponse{Token: token, User: user})
}

// Login verifies credentials and returns a signed token
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondStatus(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password, models.Role(req.Role), req.GitHubUsername)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := GenerateToken(h.jwtSecret, user, h.tokenExpiry)
	if err != nil {
		respondStatus(c, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondOK(c, "logged in", authResponse{Token: token, User: user})
}

type connectGitHubRequest struct {
	AccessToken string `json:"accessToken" binding:"required"`
}

// ConnectGitHub links a GitHub access token to the authenticated user
func (h *Handlers) ConnectGitHub(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondStatus(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req connectGitHubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondStatus(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.userService.ConnectGitHub(c.Request.Context(), userID, req.AccessToken); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "github account connected", nil)
}

// CurrentUser returns the authenticated user's profile snapshot
func (h *Handlers) CurrentUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondStatus(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "user", gin.H{
		"user": user,
		"rank": service.RankForXP(user.XP),
	})
}
