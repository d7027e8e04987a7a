package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tabula-io/tabula-backend/api"
	"github.com/tabula-io/tabula-backend/config"
	"github.com/tabula-io/tabula-backend/internal/authz"
	"github.com/tabula-io/tabula-backend/internal/logger"
	"github.com/tabula-io/tabula-backend/internal/schema"
	"github.com/tabula-io/tabula-backend/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

func main() {
	customLog.Println("Starting Tabula backend server...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		customLog.Fatalf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// 2. Initialize Database Connection
	db, err := storage.Connect(cfg)
	if err != nil {
		customLog.Fatalf("Failed to initialize database: %v", err)
		os.Exit(1)
	}
	defer func() {
		customLog.Println("Closing database connection...")
		if err := db.Close(); err != nil {
			customLog.Printf("Error closing database: %v", err)
		}
	}()

	// 3. Load the table registry
	registry, err := schema.LoadRegistry(cfg.TablesFile)
	if err != nil {
		customLog.Fatalf("Failed to load table registry: %v", err)
		os.Exit(1)
	}
	customLog.Printf("Table registry loaded: %v", registry.Names())

	// 4. Load the initial permission snapshot
	perms := authz.NewStore()
	if err := perms.Reload(context.Background(), db); err != nil {
		customLog.Fatalf("Failed to load permission snapshot: %v", err)
		os.Exit(1)
	}

	// 5. Setup Router (passing dependencies)
	router := api.SetupRouter(db, cfg, registry, perms)

	// 6. Start Server
	customLog.Printf("Server listening on port %s", cfg.ServerPort)
	if err := router.Run(fmt.Sprintf(":%s", cfg.ServerPort)); err != nil {
		customLog.Fatalf("Failed to start server: %v", err)
	}
}
