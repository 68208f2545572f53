package requests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/fakefs"
	"github.com/brettbedarf/fakefs/adapters"
)

var (
	ErrUnknownNodeType = errors.New("unknown node type")
	ErrMissingTarget   = errors.New("link has no target")
	ErrInvalidField    = errors.New("field not valid for node type")
)

// Decoder turns tree definitions into [fakefs.DirCreateRequest] values,
// building file content adapters through its registry.
type Decoder struct {
	registry *adapters.Registry
}

func NewDecoder(registry *adapters.Registry) *Decoder {
	return &Decoder{registry: registry}
}

// UnmarshalTree decodes a JSON tree definition. The document is either a
// single "dir" node, whose name is ignored and whose id names the root
// directory, or an array of the root's children.
func (d *Decoder) UnmarshalTree(data []byte) (*fakefs.DirCreateRequest, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var children []json.RawMessage
		if err := json.Unmarshal(trimmed, &children); err != nil {
			return nil, err
		}
		return d.dirRequest(NodeRequestDTO{Type: fakefs.DirNodeType, Children: children})
	}

	req, err := d.UnmarshalNodeRequest(trimmed)
	if err != nil {
		return nil, err
	}
	root, ok := req.(*fakefs.DirCreateRequest)
	if !ok {
		return nil, fmt.Errorf("tree root must be a %q node, got %q", fakefs.DirNodeType, req.GetNodeRequest().Type)
	}
	return root, nil
}

// UnmarshalTreeYAML decodes a YAML tree definition with the same shape as
// the JSON one.
func (d *Decoder) UnmarshalTreeYAML(data []byte) (*fakefs.DirCreateRequest, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert yaml tree: %w", err)
	}
	return d.UnmarshalTree(raw)
}

// LoadTreeFile reads a tree definition, choosing the format by extension
func (d *Decoder) LoadTreeFile(path string) (*fakefs.DirCreateRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return d.UnmarshalTreeYAML(data)
	case ".json":
		return d.UnmarshalTree(data)
	default:
		return nil, fmt.Errorf("unknown tree file extension: %s", ext)
	}
}

// GetNodeType extracts the node type from JSON without full unmarshaling
func GetNodeType(data []byte) (fakefs.NodeRequestType, error) {
	var meta struct {
		Type fakefs.NodeRequestType `json:"type"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", err
	}
	return meta.Type, nil
}

// UnmarshalNodeRequest decodes a single node, recursing into dir children
func (d *Decoder) UnmarshalNodeRequest(data []byte) (fakefs.NodeRequestor, error) {
	var dto NodeRequestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}

	switch dto.Type {
	case fakefs.FileNodeType:
		return d.fileRequest(dto)
	case fakefs.DirNodeType:
		return d.dirRequest(dto)
	case fakefs.LinkNodeType:
		return d.linkRequest(dto)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, dto.Type)
	}
}

func (d *Decoder) fileRequest(dto NodeRequestDTO) (*fakefs.FileCreateRequest, error) {
	if len(dto.Children) > 0 || dto.Target != nil {
		return nil, fmt.Errorf("%w: file %q", ErrInvalidField, dto.Name)
	}
	node, err := convertNodeDTO(dto)
	if err != nil {
		return nil, err
	}

	sources := make([]fakefs.ContentAdapter, 0, len(dto.Sources))
	for i, raw := range dto.Sources {
		adapter, err := d.registry.NewAdapter(raw)
		if err != nil {
			return nil, fmt.Errorf("file %q: failed to unmarshal source %d: %w", dto.Name, i, err)
		}
		sources = append(sources, adapter)
	}

	return &fakefs.FileCreateRequest{NodeRequest: node, Sources: sources}, nil
}

func (d *Decoder) dirRequest(dto NodeRequestDTO) (*fakefs.DirCreateRequest, error) {
	if len(dto.Sources) > 0 || dto.Target != nil {
		return nil, fmt.Errorf("%w: dir %q", ErrInvalidField, dto.Name)
	}
	node, err := convertNodeDTO(dto)
	if err != nil {
		return nil, err
	}

	children := make([]fakefs.NodeRequestor, 0, len(dto.Children))
	for _, raw := range dto.Children {
		child, err := d.UnmarshalNodeRequest(raw)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	return &fakefs.DirCreateRequest{NodeRequest: node, Children: children}, nil
}

func (d *Decoder) linkRequest(dto NodeRequestDTO) (*fakefs.LinkCreateRequest, error) {
	if len(dto.Sources) > 0 || len(dto.Children) > 0 {
		return nil, fmt.Errorf("%w: link %q", ErrInvalidField, dto.Name)
	}
	if dto.Target == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingTarget, dto.Name)
	}
	target, err := uuid.Parse(*dto.Target)
	if err != nil {
		return nil, fmt.Errorf("link %q: invalid target: %w", dto.Name, err)
	}
	node, err := convertNodeDTO(dto)
	if err != nil {
		return nil, err
	}

	return &fakefs.LinkCreateRequest{NodeRequest: node, Target: target}, nil
}

// Conversion logic with defaults in the unmarshaling layer
func convertNodeDTO(dto NodeRequestDTO) (fakefs.NodeRequest, error) {
	id := uuid.New()
	if dto.ID != nil {
		parsed, err := uuid.Parse(*dto.ID)
		if err != nil {
			return fakefs.NodeRequest{}, fmt.Errorf("node %q: invalid id: %w", dto.Name, err)
		}
		id = parsed
	}

	return fakefs.NodeRequest{
		Type: dto.Type,
		Name: dto.Name,
		UUID: id,
	}, nil
}
