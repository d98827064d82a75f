package defaults

import (
	"log/slog"
	"net/http"

	"github.com/anismama/backend/internal/providers"
	"github.com/anismama/backend/internal/providers/animesama"
	"github.com/anismama/backend/internal/providers/yamlprovider"
)

// NewRegistry assembles the provider registry used by the API. The
// built-in provider registers first and becomes the default; YAML
// defined mirrors register after it. YAML load failures do not prevent
// the built-in provider from working, the error is returned alongside
// the registry so the caller can log it.
func NewRegistry(animeSamaBaseURL string, yamlProvidersPath string, logger *slog.Logger) (*providers.Registry, error) {
	builder := providers.NewBuilder()
	builder.Register(animesama.NewProviderWithOptions(animeSamaBaseURL, nil, logger))

	loaded, loadErr := yamlprovider.LoadFromDir(yamlProvidersPath, http.DefaultClient)
	for _, provider := range loaded {
		builder.Register(provider)
	}

	registry, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return registry, loadErr
}
