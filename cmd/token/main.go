package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func main() {
	secret := flag.String("secret", "dev-secret", "HMAC secret the server verifies with")
	userID := flag.String("user", "", "User UUID (random if omitted)")
	role := flag.String("role", "candidate", "Role claim: recruiter or candidate")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if *role != "recruiter" && *role != "candidate" {
		fmt.Fprintln(os.Stderr, "role must be recruiter or candidate")
		os.Exit(1)
	}

	sub := *userID
	if sub == "" {
		sub = uuid.NewString()
	} else if _, err := uuid.Parse(sub); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid user id: %v\n", err)
		os.Exit(1)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": *role,
		"iat":  now.Unix(),
		"exp":  now.Add(*ttl).Unix(),
	})

	signed, err := token.SignedString([]byte(*secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("User:  %s\n", sub)
	fmt.Printf("Role:  %s\n", *role)
	fmt.Printf("Token: %s\n", signed)
}
