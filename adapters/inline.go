package adapters

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/brettbedarf/fakefs"
)

// TextSource is inline UTF-8 content: {"type":"text","text":"..."}
type TextSource struct {
	Text string `json:"text"`
}

// Base64Source is inline binary content, standard encoding with padding:
// {"type":"base64","data":"..."}
type Base64Source struct {
	Data string `json:"data"`
}

// TextProvider builds adapters for [TextSource] configs
type TextProvider struct{}

func (TextProvider) NewAdapter(raw []byte) (fakefs.ContentAdapter, error) {
	var src TextSource
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("text source: %w", err)
	}
	return &InlineAdapter{data: []byte(src.Text)}, nil
}

// Base64Provider builds adapters for [Base64Source] configs. Data is decoded
// up front so malformed sources fail when the tree definition is parsed.
type Base64Provider struct{}

func (Base64Provider) NewAdapter(raw []byte) (fakefs.ContentAdapter, error) {
	var src Base64Source
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("base64 source: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(src.Data)
	if err != nil {
		return nil, fmt.Errorf("base64 source: %w", err)
	}
	return &InlineAdapter{data: data}, nil
}

func RegisterText(r *Registry) {
	r.Register(TextAdapterType, TextProvider{})
}

func RegisterBase64(r *Registry) {
	r.Register(Base64AdapterType, Base64Provider{})
}

// InlineAdapter serves content held in memory
type InlineAdapter struct {
	data []byte
}

func (a *InlineAdapter) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(a.data)), nil
}

var (
	_ fakefs.AdapterProvider = TextProvider{}
	_ fakefs.AdapterProvider = Base64Provider{}
	_ fakefs.ContentAdapter  = (*InlineAdapter)(nil)
)
