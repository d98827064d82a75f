package yamlprovider

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anismama/backend/internal/providers"
	"gopkg.in/yaml.v3"
)

// LoadFromDir loads every enabled YAML provider definition in dirPath. A
// missing directory is not an error. Files that fail to load are
// collected into a single error while the rest still load.
func LoadFromDir(dirPath string, client *http.Client) ([]providers.Provider, error) {
	trimmed := strings.TrimSpace(dirPath)
	if trimmed == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read yaml providers dir: %w", err)
	}

	files := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		lower := strings.ToLower(entry.Name())
		if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
			files = append(files, filepath.Join(trimmed, entry.Name()))
		}
	}
	sort.Strings(files)

	loaded := make([]providers.Provider, 0, len(files))
	loadErrors := make([]string, 0)

	for _, filePath := range files {
		content, err := os.ReadFile(filePath)
		if err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", filepath.Base(filePath), err))
			continue
		}

		var cfg Config
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", filepath.Base(filePath), err))
			continue
		}
		if !cfg.isEnabled() {
			continue
		}

		provider, err := NewProvider(cfg, client)
		if err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", filepath.Base(filePath), err))
			continue
		}
		loaded = append(loaded, provider)
	}

	if len(loadErrors) > 0 {
		return loaded, fmt.Errorf("yaml providers failed to load: %s", strings.Join(loadErrors, " | "))
	}

	return loaded, nil
}
