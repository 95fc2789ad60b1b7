package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/grubber-app/api-go/config"
	"github.com/grubber-app/api-go/controllers"
	"github.com/grubber-app/api-go/middleware"
	"github.com/grubber-app/api-go/routes"
	"github.com/grubber-app/api-go/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// No .env in production, everything comes from the environment.
		log.Warn().Msg("No .env file found")
	}

	db := config.InitDB()
	placesCfg := config.GetPlacesConfig()
	googleCfg := config.NewGooglePlacesConfig()

	store := services.NewPlaceDataService(db, placesCfg)
	google := services.NewGooglePlacesService(googleCfg)
	identity := services.NewPlaceIdentityService(store, placesCfg)
	photos := services.NewPlacePhotoService(store, google, placesCfg)
	places := services.NewPlacesService(store, google, identity, photos, placesCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageWorker := services.NewPhotoStorageService(store, config.GetStorageConfig())
	go storageWorker.Run(ctx, placesCfg.PhotoStorageInterval)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	routes.SetupRoutes(r, controllers.NewPlaceController(places))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info().Str("port", port).Msg("Starting server")
	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("Server exited")
	}
}
