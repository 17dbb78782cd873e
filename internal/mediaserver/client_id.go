package mediaserver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const clientIDFileName = "plex_client_id"

// LoadClientIdentifier returns the Plex client identifier stored under dir,
// generating and persisting a new one on first use. Plex ties device
// registrations to this value, so it must stay stable across runs.
func LoadClientIdentifier(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return newClientIdentifier(), nil
	}
	path := filepath.Join(dir, clientIDFileName)
	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read plex client identifier: %w", err)
	}

	id := newClientIdentifier()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure state directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write plex client identifier: %w", err)
	}
	return id, nil
}

func newClientIdentifier() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
