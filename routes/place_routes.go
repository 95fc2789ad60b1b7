package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/grubber-app/api-go/controllers"
)

func SetupPlaceRoutes(api *gin.RouterGroup, placeController *controllers.PlaceController) {
	places := api.Group("/places")
	{
		places.POST("/find-nearby", placeController.FindNearbyPlaces)
	}
}
