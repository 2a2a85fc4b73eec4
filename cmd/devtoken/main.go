// Command devtoken mints a session token for local testing against the API.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/example/bagswap/internal/config"
	"github.com/example/bagswap/internal/utils"
)

func main() {
	userFlag := flag.String("user", "", "user id (random when empty)")
	email := flag.String("email", "", "email claim")
	flag.Parse()

	cfg := config.Load()

	userID := uuid.New()
	if *userFlag != "" {
		parsed, err := uuid.Parse(*userFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid user id: %v\n", err)
			os.Exit(2)
		}
		userID = parsed
	}

	token, err := utils.GenerateToken(cfg.JWTSecret, userID, *email, cfg.TokenExpires)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("user:  %s\ntoken: %s\n", userID, token)
}
