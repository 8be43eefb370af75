package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"launchdash/adapters/api"
	"launchdash/internal/config"
	"launchdash/internal/container"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	appContainer, err := container.New(ctx, appConfig)
	if err != nil {
		log.Fatalf("Failed to load launch records: %v", err)
	}
	defer appContainer.Shutdown(ctx)

	app := api.NewApp(appContainer.Engine, appConfig.Dashboard.PayloadStep)
	if err := app.Start(":" + appConfig.Server.APIPort); err != nil {
		log.Fatalf("API server stopped: %v", err)
	}
}
