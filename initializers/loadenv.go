package initializers

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv pulls variables from a .env file into the process environment.
// Deployed environments set variables directly and ship no .env file.
func LoadEnv() error {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("could not load %s: %w", path, err)
	}
	log.Println("Env loaded successfully")
	return nil
}
