// Package credentials resolves provider API keys from an ordered list of
// named-value sources: a structured secrets file first, then the process
// environment. The first source holding a non-empty value wins.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/corboo/claire-video-generator/internal/domain"
)

// Credential names looked up by the service.
const (
	KeyHumeAPIKey = "HUME_API_KEY"
	KeyDIDAPIKey  = "DID_API_KEY"
)

// Source resolves a named credential value.
type Source interface {
	Resolve(name string) (string, bool)
}

// Store queries its sources in priority order.
type Store struct {
	sources []Source
}

// NewStore builds a store over the given sources, highest priority first.
func NewStore(sources ...Source) *Store {
	return &Store{sources: sources}
}

// Resolve returns the first non-empty value for name across the sources.
func (s *Store) Resolve(name string) (string, bool) {
	for _, src := range s.sources {
		if v, ok := src.Resolve(name); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// HumeAPIKey resolves the TTS provider credential.
func (s *Store) HumeAPIKey() (string, bool) {
	return s.Resolve(KeyHumeAPIKey)
}

// DIDAPIKey resolves the avatar-video provider credential.
func (s *Store) DIDAPIKey() (string, bool) {
	return s.Resolve(KeyDIDAPIKey)
}

// ProviderKeys resolves both required credentials, failing closed when either
// is absent. The service must not start, and no provider call may be made,
// without both keys.
func (s *Store) ProviderKeys() (humeKey, didKey string, err error) {
	humeKey, okHume := s.HumeAPIKey()
	didKey, okDID := s.DIDAPIKey()
	if !okHume || !okDID {
		return "", "", fmt.Errorf("%w: set %s and %s", domain.ErrMissingCredentials, KeyHumeAPIKey, KeyDIDAPIKey)
	}
	return humeKey, didKey, nil
}

// FileSource reads credentials from a flat TOML secrets file
// (key = "value" per line). A missing file yields an empty source so
// deployments that rely on environment variables alone still work.
type FileSource struct {
	values map[string]string
}

// NewFileSource loads path into memory. Only a malformed file is an error.
func NewFileSource(path string) (*FileSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &FileSource{values: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("credentials: read secrets file: %w", err)
	}
	values := map[string]string{}
	if err := toml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("credentials: parse secrets file %s: %w", path, err)
	}
	return &FileSource{values: values}, nil
}

// Resolve implements Source.
func (f *FileSource) Resolve(name string) (string, bool) {
	v, ok := f.values[name]
	return v, ok
}

// EnvSource resolves credentials from process environment variables.
type EnvSource struct{}

// Resolve implements Source.
func (EnvSource) Resolve(name string) (string, bool) {
	return os.LookupEnv(name)
}
