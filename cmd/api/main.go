package main

import (
	"context"
	"log"

	"parkservices/internal/config"
	"parkservices/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	a := newApp(context.Background(), cfg, db)
	defer a.hub.Close()

	log.Printf("server_start addr=%s env=%s permissive_transitions=%t mock_directory=%t",
		cfg.Addr, cfg.AppEnv, cfg.PermissiveTransitions, cfg.MockDirectory)
	if err := a.router.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
