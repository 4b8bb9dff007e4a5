package gateway

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// Environment variables naming the gateway base URL, in precedence order.
const (
	EnvAPIURL       = "RAGCHAT_API_URL"
	EnvLegacyAPIURL = "VITE_API_URL"
)

// LoadEnv loads .env files into the process environment.
// Variables already set are not overridden and missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ResolveBaseURL picks the gateway URL: flag, then environment, then
// settings, then domain.DefaultAPIURL. The result has no trailing slash.
func ResolveBaseURL(flagValue, settingsValue string) string {
	candidates := []string{
		flagValue,
		os.Getenv(EnvAPIURL),
		os.Getenv(EnvLegacyAPIURL),
		settingsValue,
	}
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return strings.TrimRight(c, "/")
		}
	}
	return domain.DefaultAPIURL
}
