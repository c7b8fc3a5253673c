package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yourusername/verification-api/internal/config"
	"github.com/yourusername/verification-api/pkg/auth"
	"github.com/yourusername/verification-api/pkg/logger"
)

// issue-token prints an admin bearer token for the operator routes.
func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	subject := flag.String("subject", "operator", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Log.Fatalf("Failed to load config: %v", err)
	}

	jwtService, err := auth.NewJWTService(cfg.Auth.JWTSecret, *ttl)
	if err != nil {
		logger.Log.Fatal(err)
	}
	token, err := jwtService.GenerateToken(*subject, auth.RoleAdmin)
	if err != nil {
		logger.Log.Fatal(err)
	}
	fmt.Println(token)
}
