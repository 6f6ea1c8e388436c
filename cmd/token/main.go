// Mints an operator token for the protected admin endpoints, using the
// same secret the api service validates against.
package main

import (
	"flag"
	"fmt"
	"os"

	"adaptt/internal/config"
	"adaptt/internal/util"
)

func main() {
	userID := flag.Int("user", 1, "operator user id embedded in the token")
	flag.Parse()

	cfg := config.Load()
	if cfg.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "jwt secret is not configured")
		os.Exit(1)
	}

	token, err := util.GenerateJWT(*userID, cfg.JWT.Secret)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to generate token:", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
