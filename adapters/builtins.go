package adapters

// NOTE: If build bloat becomes a concern for unused adapters
// look into build tags i.e. +build !nohttp

type BuiltInAdapterType = string

const (
	TextAdapterType   BuiltInAdapterType = "text"
	Base64AdapterType BuiltInAdapterType = "base64"
	HTTPAdapterType   BuiltInAdapterType = "http"
)

// RegisterBuiltins registers all built-in adapters by default
// or only the specific ones if keys are provided
func RegisterBuiltins(r *Registry, adapters ...BuiltInAdapterType) {
	if len(adapters) == 0 {
		// Include all built-in adapters here when adding implementations
		adapters = append(adapters, TextAdapterType, Base64AdapterType, HTTPAdapterType)
	}

	for _, key := range adapters {
		switch key {
		case TextAdapterType:
			RegisterText(r)
		case Base64AdapterType:
			RegisterBase64(r)
		case HTTPAdapterType:
			RegisterHTTP(r)
		}
	}
}
