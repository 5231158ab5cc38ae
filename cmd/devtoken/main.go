// Command devtoken prints a signed session token for local testing.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	model "auction-marketplace/internal/models"
	"auction-marketplace/internal/session"
)

func main() {
	sub := flag.String("sub", "demo-user", "user id (token subject)")
	email := flag.String("email", "user@example.com", "email claim")
	role := flag.String("role", string(model.RoleUser), "role claim: user or admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET must be set")
		os.Exit(1)
	}

	token, err := session.NewParser(secret).Issue(*sub, *email, model.Role(*role), *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
