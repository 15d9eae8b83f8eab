package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/VicegerentPrince/Urban-Eye/config"
	"github.com/VicegerentPrince/Urban-Eye/controllers"
	"github.com/VicegerentPrince/Urban-Eye/middlewares"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(r *gin.Engine, cfg *config.Config) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", controllers.RegisterUser)
		auth.POST("/login", controllers.LoginUser)
		auth.GET("/me", middlewares.AuthMiddleware(cfg.JWTSecret), controllers.GetMe)
	}
}
