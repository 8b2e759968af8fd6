package api

import (
	"net/http"
	"strconv"

	"stakeforge/service"

	"github.com/gin-gonic/gin"
)

// Profile returns a user's public profile with the GitHub snapshot and rank
func (h *Handlers) Profile(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		respondStatus(c, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "profile", gin.H{
		"id":             user.ID,
		"role":           user.Role,
		"githubUsername": user.GitHubUsername,
		"githubInfo":     user.GitHubInfo,
		"coins":          user.Coins,
		"xp":             user.XP,
		"rank":           service.RankForXP(user.XP),
	})
}

// Rank returns the caller's position on the XP ladder
func (h *Handlers) Rank(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondStatus(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "rank", service.RankForXP(user.XP))
}
