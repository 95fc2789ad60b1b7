package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grubber-app/api-go/controllers"
)

func SetupRoutes(r *gin.Engine, placeController *controllers.PlaceController) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		SetupPlaceRoutes(api, placeController)
	}
}
