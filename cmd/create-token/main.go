// CLI tool to mint a device API token and its bcrypt hash.
// The server only stores the hash (API_TOKEN_HASH); the token goes to the app.
// Usage: go run ./cmd/create-token [-token existing-token]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	token := flag.String("token", "", "hash this token instead of generating one")
	flag.Parse()

	if *token == "" {
		*token = uuid.New().String()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*token), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nToken created successfully!\n")
	fmt.Printf("  Token:          %s\n", *token)
	// Single quotes keep godotenv from expanding the $ segments of the hash.
	fmt.Printf("\nAdd to the server's .env:\n  API_TOKEN_HASH='%s'\n", hash)
	fmt.Println("Send the token as 'Authorization: Bearer <token>'.")
}
