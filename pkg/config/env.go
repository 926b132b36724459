package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// LoadDotEnv loads variables from the given .env files (default ".env") into the
// process environment. Variables already set are never overridden and missing
// files are ignored, so it is safe to call unconditionally from main.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// IsProductionLike reports whether env requires production-grade configuration.
func IsProductionLike(env string) bool {
	env = strings.ToLower(env)
	return env == EnvStaging || env == EnvProduction
}
