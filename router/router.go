package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"isabet-pos/controllers"
	"isabet-pos/handlers"
	"isabet-pos/middlewares"
	"isabet-pos/models"
)

func SetupRouter(db *gorm.DB, h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.CORSMiddleware())

	rateLimiter := middlewares.NewRateLimiter(50, 1)
	r.Use(rateLimiter.RateLimit())

	// Every terminal talks over this one socket.
	r.GET("/ws", h.ServeWS)

	// Terminal UI is plain static content served next to the binary.
	r.StaticFile("/", "./public/index.html")
	r.Static("/public", "./public")

	authCtrl := controllers.NewAuthController(db)
	reportCtrl := controllers.NewReportController(db)

	api := r.Group("/api")
	{
		api.POST("/login", authCtrl.Login)

		protected := api.Group("", middlewares.AuthMiddleware())
		{
			protected.GET("/products", reportCtrl.ListProducts)
			protected.GET("/sales",
				middlewares.RequireRole(models.RoleCashier),
				reportCtrl.GetSalesReport)
		}
	}

	return r
}
