package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grubber-app/api-go/types"
)

// NearbyPlacesFinder is the single operation the controller needs from the
// places engine.
type NearbyPlacesFinder interface {
	FindNearbyPlaces(ctx context.Context, lat, lng float64, keyword string) ([]types.PlaceWithPhotos, error)
}

type PlaceController struct {
	Places NearbyPlacesFinder
}

func NewPlaceController(places NearbyPlacesFinder) *PlaceController {
	return &PlaceController{Places: places}
}

// FindNearbyPlaces handles POST /places/find-nearby. The body carries the
// query point and an optional keyword; the response is the full place list
// with photos, or a single internal-error shape on the fatal path.
func (pc *PlaceController) FindNearbyPlaces(c *gin.Context) {
	var req types.FindNearbyPlacesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	places, err := pc.Places.FindNearbyPlaces(c.Request.Context(), *req.Latitude, *req.Longitude, req.Keyword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to fetch nearby places",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, places)
}
