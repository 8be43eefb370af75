package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"launchdash/adapters/api"
	"launchdash/internal/config"
	"launchdash/internal/container"
	"launchdash/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	// The dataset is loaded once here; a load failure aborts startup
	ctx := context.Background()
	appContainer, err := container.New(ctx, appConfig)
	if err != nil {
		log.Fatalf("Failed to load launch records: %v", err)
	}
	defer appContainer.Shutdown(ctx)

	server, err := ui.NewServer(appContainer.Sessions, appContainer.SSEHub)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	if appConfig.Server.APIPort != "" {
		apiApp := api.NewApp(appContainer.Engine, appConfig.Dashboard.PayloadStep)
		go func() {
			if err := apiApp.Start(":" + appConfig.Server.APIPort); err != nil {
				log.Printf("JSON API server stopped: %v", err)
			}
		}()
	}

	log.Printf("Starting launch dashboard on port %s", appConfig.Server.Port)
	if err := server.Start(":" + appConfig.Server.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
