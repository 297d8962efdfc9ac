package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultAvatarName is the bundled avatar asset shipped with the deployment.
const DefaultAvatarName = "chef-avatar.png"

// AssetStore reads bundled assets from a local directory. It is read-only;
// nothing generated at runtime is persisted here.
type AssetStore struct {
	basePath string
}

// NewAssetStore initializes an AssetStore rooted at basePath.
func NewAssetStore(basePath string) (*AssetStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("storage: assets dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: %s is not a directory", basePath)
	}
	return &AssetStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *AssetStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Read returns the bytes of the asset at the given relative key. Keys are
// cleaned to prevent directory traversal.
func (s *AssetStore) Read(key string) ([]byte, error) {
	if s == nil {
		return nil, errors.New("storage: no store configured")
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, filepath.FromSlash(cleanKey)))
	if err != nil {
		return nil, fmt.Errorf("storage: read asset %s: %w", cleanKey, err)
	}
	return data, nil
}

// DefaultAvatar reads the bundled avatar image.
func (s *AssetStore) DefaultAvatar() ([]byte, error) {
	return s.Read(DefaultAvatarName)
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}
