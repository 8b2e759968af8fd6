package api

import (
	"net/http"
	"strconv"

	"stakeforge/models"

	"github.com/gin-gonic/gin"
)

// AnalyzeRepositories runs a full aggregation and scoring pass for the caller
func (h *Handlers) AnalyzeRepositories(c *gin.Context) {
	user, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	analysis, err := h.analysisService.AnalyzeRepositories(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "analysis complete", analysis)
}

// SuggestedIssues returns only the scored opportunities from an analysis pass
func (h *Handlers) SuggestedIssues(c *gin.Context) {
	user, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	analysis, err := h.analysisService.AnalyzeRepositories(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "suggested issues", analysis.SuggestedIssues)
}

// IssueDetails returns the scored opportunity for one issue ID. Opportunities
// are recomputed per call, so the issue must still be open and labelled.
func (h *Handlers) IssueDetails(c *gin.Context) {
	issueID, err := strconv.ParseInt(c.Param("issueId"), 10, 64)
	if err != nil {
		respondStatus(c, http.StatusBadRequest, "invalid issue id")
		return
	}

	user, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	analysis, err := h.analysisService.AnalyzeRepositories(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	for _, opp := range analysis.SuggestedIssues {
		if opp.ID == issueID {
			respondOK(c, "issue details", opp)
			return
		}
	}

	respondStatus(c, http.StatusNotFound, "issue not found among current opportunities")
}

type prepareStakeRequest struct {
	IssueID    int64  `json:"issueId" binding:"required"`
	Repository string `json:"repository" binding:"required"`
	Amount     int64  `json:"amount" binding:"required"`
}

// PrepareStake validates a stake before the client commits to it: the amount
// must be positive and within the caller's balance. Nothing is persisted.
func (h *Handlers) PrepareStake(c *gin.Context) {
	user, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	var req prepareStakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondStatus(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Amount <= 0 {
		respondStatus(c, http.StatusBadRequest, "stake amount must be positive")
		return
	}
	if req.Amount > user.Coins {
		respondStatus(c, http.StatusBadRequest, "insufficient coins for this stake")
		return
	}

	respondOK(c, "stake is valid", gin.H{
		"issueId":        req.IssueID,
		"repository":     req.Repository,
		"amount":         req.Amount,
		"remainingCoins": user.Coins - req.Amount,
	})
}

// authenticatedUser loads the caller's user record, writing the error
// response itself when that fails
func (h *Handlers) authenticatedUser(c *gin.Context) (*models.User, bool) {
	userID, found := currentUserID(c)
	if !found {
		respondStatus(c, http.StatusUnauthorized, "not authenticated")
		return nil, false
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return user, true
}
