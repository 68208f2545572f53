package adapters

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/fakefs"
	"github.com/brettbedarf/fakefs/internal/util"
)

var (
	ErrMissingType  = errors.New("source config has no type")
	ErrUnregistered = errors.New("no provider registered for source type")
)

// Registry maps source "type" keys to the providers that build their adapters.
// It is safe for concurrent use.
type Registry struct {
	providers *xsync.Map[string, fakefs.AdapterProvider]
}

func NewRegistry() *Registry {
	return &Registry{providers: xsync.NewMap[string, fakefs.AdapterProvider]()}
}

// Register ties a provider to a "type" key. The first registration for a key
// wins; later ones are ignored.
func (r *Registry) Register(adapterType string, provider fakefs.AdapterProvider) {
	if _, loaded := r.providers.LoadOrStore(adapterType, provider); loaded {
		logger := util.GetLogger("Registry")
		logger.Debug().Str("type", adapterType).Msg("Provider already registered; ignoring")
	}
}

// GetProvider returns the provider registered for adapterType
func (r *Registry) GetProvider(adapterType string) (fakefs.AdapterProvider, error) {
	p, ok := r.providers.Load(adapterType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnregistered, adapterType)
	}
	return p, nil
}

// NewAdapter picks the provider based on the raw config's "type" field and
// hands it the whole config.
func (r *Registry) NewAdapter(raw []byte) (fakefs.ContentAdapter, error) {
	var meta struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	if meta.Type == "" {
		return nil, ErrMissingType
	}
	p, err := r.GetProvider(meta.Type)
	if err != nil {
		return nil, err
	}
	return p.NewAdapter(raw)
}
