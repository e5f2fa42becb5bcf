package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gantur-Enbotics/xmas-2025/internal/handlers"
	"github.com/Gantur-Enbotics/xmas-2025/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	unlockHandler *handlers.UnlockHandler,
	letterHandler *handlers.LetterHandler,
	adminHandler *handlers.AdminHandler,
	jwtSecret []byte,
) *gin.Engine {

	// ---- public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/letters/public", letterHandler.PublicList)

	// unlock gateway: cooldown pre-check and verified post-check
	r.POST("/precheck", unlockHandler.PreCheck)
	r.POST("/postcheck", unlockHandler.PostCheck)

	// ---- admin
	r.POST("/admin/login", adminHandler.Login)

	letters := r.Group("/admin/letters", middleware.AdminAuth(jwtSecret))
	{
		letters.GET("", adminHandler.List)
		letters.POST("", adminHandler.Create)
		letters.PUT("", adminHandler.Update)
		letters.DELETE("", adminHandler.Delete)
		letters.GET("/:id/pdf", adminHandler.ExportPDF)
	}

	return r
}
