package api

import (
	"cellar/internal/utils"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// EnsureAuthToken loads the API token from dir, generating and
// persisting a fresh one on first use. The file is private to the
// user; anyone who can read it may watch the event stream.
func EnsureAuthToken(dir string) string {
	tokenFile := filepath.Join(dir, "token")
	if data, err := os.ReadFile(tokenFile); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token
		}
	}

	token := uuid.New().String()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		utils.Debug("Failed to create token directory: %v", err)
	}
	if err := os.WriteFile(tokenFile, []byte(token), 0o600); err != nil {
		utils.Debug("Failed to persist token: %v", err)
	}
	return token
}
