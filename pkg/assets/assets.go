// Package assets embeds the client scripts and renders the page injection
// snippet that hands the render-phase payload to them.
package assets

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	gotemplate "github.com/goliatone/go-template"
)

const (
	// CollectorScript fills non-deferred fields on page load.
	CollectorScript = "collector.js"
	// RelayScript validates the designated email field through the relay endpoint.
	RelayScript = "email-relay.js"
)

var (
	// ErrNotFound is returned for names outside the embedded set.
	ErrNotFound = errors.New("assets: not found")
	// ErrRendererConfig is returned when the template engine cannot be built.
	ErrRendererConfig = errors.New("assets: renderer configuration")
)

//go:embed js/*.js
var files embed.FS

// Names lists the embedded scripts in lexical order.
func Names() []string {
	entries, err := fs.ReadDir(files, "js")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

// Read returns the content of an embedded script.
func Read(name string) ([]byte, error) {
	name = path.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == "/" {
		return nil, ErrNotFound
	}
	data, err := files.ReadFile("js/" + name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return data, nil
}

// ContentType returns the MIME type served for name.
func ContentType(name string) string {
	if strings.HasSuffix(name, ".js") {
		return "application/javascript; charset=utf-8"
	}
	return "application/octet-stream"
}

const snippetTemplate = `<script>SurveyDataCollector = {{ settings|safe }};</script>
<script src="{{ base_url }}/assets/` + CollectorScript + `"></script>
<script src="{{ base_url }}/assets/` + RelayScript + `"></script>
`

// Renderer renders the injection snippet for a payload.
type Renderer struct {
	mu      sync.Mutex
	engine  *gotemplate.Engine
	baseURL string
}

// NewRenderer builds a renderer whose script tags point below baseURL.
func NewRenderer(baseURL string, opts ...gotemplate.Option) (*Renderer, error) {
	rendererOpts := []gotemplate.Option{
		gotemplate.WithBaseDir("."),
	}
	rendererOpts = append(rendererOpts, opts...)
	engine, err := gotemplate.NewRenderer(rendererOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRendererConfig, err)
	}
	return &Renderer{engine: engine, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Snippet renders the HTML for payload. A nil payload renders nothing.
func (r *Renderer) Snippet(payload any) (string, error) {
	if r == nil || r.engine == nil {
		return "", ErrRendererConfig
	}
	if payload == nil {
		return "", nil
	}
	// json.Marshal escapes <, > and & so the payload cannot close the tag.
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("assets: encode payload: %w", err)
	}
	if string(raw) == "null" {
		return "", nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out, err := r.engine.RenderString(snippetTemplate, map[string]any{
		"settings": string(raw),
		"base_url": r.baseURL,
	})
	if err != nil {
		return "", fmt.Errorf("assets: render snippet: %w", err)
	}
	return out, nil
}
