package requests

import (
	"encoding/json"

	"github.com/brettbedarf/fakefs"
)

// NodeRequestDTO is the JSON representation of any node in a tree definition.
// Which of the optional fields apply depends on Type.
type NodeRequestDTO struct {
	Type fakefs.NodeRequestType `json:"type"`
	Name string                 `json:"name"`
	ID   *string                `json:"id,omitempty"` // Optional UUID so links can reference the node

	// dir only
	Children []json.RawMessage `json:"children,omitempty"`

	// file only; each entry is a source config, see [SourceConfigDTO]
	Sources []json.RawMessage `json:"sources,omitempty"`

	// link only; the id of the target node
	Target *string `json:"target,omitempty"`
}

// SourceConfigDTO is the JSON representation of static source config fields
//
// Additional fields depend on the "type" value:
//
// Ex. For type="http" (see [adapters.HTTPSource]):
//
//	URL     string            `json:"url"`
//	Method  *string           `json:"method,omitempty"`
//	Headers map\[string\]string `json:"headers,omitempty"`
//
// See the adapters package for the fields each built-in accepts.
type SourceConfigDTO struct {
	Type string `json:"type"`
}
