package api

import (
	"net/http"
	"strconv"

	"stakeforge/models"

	"github.com/gin-gonic/gin"
)

type createStakeRequest struct {
	IssueID    int64   `json:"issueId" binding:"required"`
	Repository string  `json:"repository" binding:"required"`
	Amount     int64   `json:"amount" binding:"required"`
	PRURL      *string `json:"prUrl"`
}

type updateStakeRequest struct {
	Status      string `json:"status" binding:"required"`
	XPEarned    int64  `json:"xpEarned"`
	CoinsEarned int64  `json:"coinsEarned"`
}

// CreateStake escrows coins from the caller against an issue
func (h *Handlers) CreateStake(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondStatus(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createStakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondStatus(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	stake, err := h.stakeService.CreateStake(c.Request.Context(), userID, req.IssueID, req.Repository, req.Amount, req.PRURL)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "stake created", stake)
}

// UpdateStakeStatus applies a terminal transition to a stake. Only
// maintainers and companies may resolve stakes.
func (h *Handlers) UpdateStakeStatus(c *gin.Context) {
	role, _ := c.Get(contextRoleKey)
	if role != models.RoleMaintainer && role != models.RoleCompany {
		respondStatus(c, http.StatusForbidden, "only maintainers can resolve stakes")
		return
	}

	stakeID, err := strconv.ParseInt(c.Param("stakeId"), 10, 64)
	if err != nil {
		respondStatus(c, http.StatusBadRequest, "invalid stake id")
		return
	}

	var req updateStakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondStatus(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	stake, err := h.stakeService.UpdateStakeStatus(c.Request.Context(), stakeID, models.StakeStatus(req.Status), req.XPEarned, req.CoinsEarned)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "stake updated", stake)
}

// ListStakes returns the caller's stakes, newest first
func (h *Handlers) ListStakes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondStatus(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	stakes, err := h.stakeService.GetUserStakes(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "stakes", stakes)
}
