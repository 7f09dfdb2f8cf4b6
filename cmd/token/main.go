// Command token signs a bearer token for the order API with the configured
// secret, for operators and local testing.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/example/order-backend/internal/auth"
	"github.com/example/order-backend/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	subject := flag.String("sub", "", "caller id placed in the subject claim")
	email := flag.String("email", "", "optional email claim")
	role := flag.String("role", "", "role claim, e.g. admin")
	flag.Parse()

	if *subject == "" {
		log.Fatal("[Token] -sub is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Token] Failed to load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("[Token] auth.jwt_secret is not set")
	}

	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	token, expiresAt, err := jwtService.GenerateToken(*subject, *email, *role)
	if err != nil {
		log.Fatalf("[Token] Failed to sign token: %v", err)
	}

	log.Printf("[Token] Valid for %s, until %s", jwtService.TokenExpiry(), expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}
