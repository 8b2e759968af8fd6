package api

import (
	"time"

	"stakeforge/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers holds the services the HTTP layer dispatches into
type Handlers struct {
	userService     service.UserService
	stakeService    service.StakeService
	analysisService service.AnalysisService
	summaryService  service.SummaryService
	jwtSecret       string
	tokenExpiry     time.Duration
}

// NewHandlers creates the HTTP handler set
func NewHandlers(
	userService service.UserService,
	stakeService service.StakeService,
	analysisService service.AnalysisService,
	summaryService service.SummaryService,
	jwtSecret string,
	tokenExpiry time.Duration,
) *Handlers {
	return &Handlers{
		userService:     userService,
		stakeService:    stakeService,
		analysisService: analysisService,
		summaryService:  summaryService,
		jwtSecret:       jwtSecret,
		tokenExpiry:     tokenExpiry,
	}
}

// NewRouter builds the gin engine with all routes and middleware attached
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	// Expensive endpoints get their own per-IP budgets
	analysisLimiter := NewIPRateLimiter(time.Hour, 10)
	issueLimiter := NewIPRateLimiter(15*time.Minute, 50)

	router.POST("/register", h.Register)
	router.POST("/login", h.Login)

	authed := router.Group("/api")
	authed.Use(AuthMiddleware(h.jwtSecret))
	{
		authed.GET("/user", h.CurrentUser)
		authed.POST("/github-token", h.ConnectGitHub)
		authed.GET("/profile/:userId", h.Profile)
		authed.GET("/rank", h.Rank)

		authed.POST("/stakes", h.CreateStake)
		authed.PATCH("/stakes/:stakeId/status", h.UpdateStakeStatus)
		authed.GET("/stakes", h.ListStakes)

		authed.GET("/analyze-repositories", RateLimitMiddleware(analysisLimiter), h.AnalyzeRepositories)
		authed.GET("/suggested-issues", RateLimitMiddleware(issueLimiter), h.SuggestedIssues)
		authed.GET("/issue-details/:issueId", RateLimitMiddleware(issueLimiter), h.IssueDetails)
		authed.POST("/prepare-stake", h.PrepareStake)

		authed.POST("/context", h.GenerateContext)
	}

	return router
}
