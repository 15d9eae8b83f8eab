package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/VicegerentPrince/Urban-Eye/config"
	"github.com/VicegerentPrince/Urban-Eye/controllers"
	"github.com/VicegerentPrince/Urban-Eye/middlewares"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine, cfg *config.Config) {
	auth := middlewares.AuthMiddleware(cfg.JWTSecret)

	issues := r.Group("/api/issues")
	{
		// The map projection is a public, unauthenticated-safe subset.
		issues.GET("/map", controllers.GetIssuesByLocation)

		issues.POST("", auth, middlewares.IssueRateLimiter(cfg.IssuesPerDay), controllers.CreateIssue)
		issues.GET("", auth, controllers.GetIssues)
		issues.GET("/stats", auth, controllers.GetIssueStats)
		issues.GET("/:id", auth, controllers.GetIssue)
		issues.PUT("/:id", auth, controllers.UpdateIssue)
		issues.DELETE("/:id", auth, controllers.DeleteIssue)
		issues.POST("/:id/comments", auth, controllers.AddComment)
	}
}
