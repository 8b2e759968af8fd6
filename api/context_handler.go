package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type contextRequest struct {
	RepoURLs []string `json:"repoUrls" binding:"required"`
}

// GenerateContext produces an LLM summary of the given repositories
func (h *Handlers) GenerateContext(c *gin.Context) {
	var req contextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondStatus(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.RepoURLs) == 0 {
		respondStatus(c, http.StatusBadRequest, "at least one repository URL is required")
		return
	}

	summary, err := h.summaryService.GenerateContext(c.Request.Context(), req.RepoURLs)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "context generated", gin.H{"context": summary})
}
