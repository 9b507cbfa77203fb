// login-check runs a full Hubspace login with credentials from the
// environment and prints the resolved account id. Useful for verifying the
// flow still matches the provider's markup without starting the bridge.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"hubbridge/config"
	"hubbridge/hubspace/auth"
)

func main() {
	config.LoadEnvFile()
	cfg := config.FromEnv()

	username := os.Getenv("HUBSPACE_USERNAME")
	password := os.Getenv("HUBSPACE_PASSWORD")
	if username == "" || password == "" {
		fmt.Fprintln(os.Stderr, "HUBSPACE_USERNAME and HUBSPACE_PASSWORD must be set")
		os.Exit(1)
	}

	client := auth.NewClient(auth.Opts{
		AuthBaseURL: "https://" + cfg.AuthHost + "/auth/realms/" + cfg.AuthRealm,
		APIBaseURL:  "https://" + cfg.ApiHost,
		ClientID:    cfg.ClientID,
		RedirectURI: cfg.RedirectURI,
		UserAgent:   cfg.UserAgent,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tok, err := client.Login(ctx, username, password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("login ok\naccountId: %s\nexpires:   %s\n", tok.AccountID, tok.Expiration.Format(time.RFC3339))
}
