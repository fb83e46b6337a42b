// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves the remote service credential. Keys come from a
// directory of plain-text files (filename is the key name, trimmed contents
// the value) or from the environment, optionally seeded by dotenv files.
//
// Supported key files: gemini-api-key, claude-api-key.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pdiddy/news-brief/pkg/types"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

// DefaultEnvFiles are the dotenv files read by LoadEnv, highest precedence first.
var DefaultEnvFiles = []string{".env.local", ".env"}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", "name", name, "error", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadEnv sets variables from the given dotenv files without overriding
// the existing environment. Earlier files win. Missing files are skipped.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// KeyName is the secrets file holding the key for provider.
func KeyName(p types.Provider) string {
	return string(p) + "-api-key"
}

// EnvVars lists the environment variables checked for provider, in order.
func EnvVars(p types.Provider) []string {
	switch p {
	case types.ProviderClaude:
		return []string{"ANTHROPIC_API_KEY"}
	default:
		return []string{"GEMINI_API_KEY", "API_KEY"}
	}
}

// Resolve picks the API key for provider: explicit wins, then the
// secrets file, then the environment. It returns the key and where it came
// from, or two empty strings when none is set.
func Resolve(p types.Provider, explicit string, files map[string]string) (key, source string) {
	if v := strings.TrimSpace(explicit); v != "" {
		return v, "flag"
	}
	name := KeyName(p)
	if v := files[name]; v != "" {
		return v, filepath.Join(DefaultDir, name)
	}
	for _, env := range EnvVars(p) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v, env
		}
	}
	return "", ""
}
