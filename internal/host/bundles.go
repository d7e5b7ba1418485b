package host

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/operaton-labs/enginebridge/internal/logging"
)

// Manifest describes what the host serves: module bundles by name and
// the environment snapshot seed.
type Manifest struct {
	Bundles map[string]BundleSource `yaml:"bundles"`
	Env     map[string]string       `yaml:"env"`
}

// BundleSource locates one bundle: a local file or a remote URL.
type BundleSource struct {
	Path   string `yaml:"path,omitempty"`
	URL    string `yaml:"url,omitempty"`
	Symbol string `yaml:"symbol,omitempty"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("load manifest: parse %s: %w", path, err)
	}
	for name, src := range m.Bundles {
		if src.Path == "" && src.URL == "" {
			return nil, fmt.Errorf("load manifest: bundle %s has neither path nor url", name)
		}
	}
	return &m, nil
}

// Registry serves bundle payloads. Local files are read per fetch and
// then cached; remote URLs are fetched with retries, the one place the
// host retries, since bundles are immutable build artifacts.
type Registry struct {
	sources map[string]BundleSource
	http    *retryablehttp.Client
	log     *logging.Logger

	mu    sync.Mutex
	cache map[string][]byte
}

// NewRegistry creates a registry for the manifest's bundles.
func NewRegistry(m *Manifest, log *logging.Logger) *Registry {
	if log == nil {
		log = logging.NewNop()
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 3
	httpClient.Logger = nil

	sources := make(map[string]BundleSource, len(m.Bundles))
	for name, src := range m.Bundles {
		sources[name] = src
	}

	return &Registry{
		sources: sources,
		http:    httpClient,
		log:     log.Component("bundles"),
		cache:   make(map[string][]byte),
	}
}

// Fetch returns the raw bytes of a named bundle.
func (r *Registry) Fetch(name string) ([]byte, error) {
	r.mu.Lock()
	if cached, ok := r.cache[name]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	src, ok := r.sources[name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown bundle %s", name)
	}

	raw, err := r.load(name, src)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[name] = raw
	r.mu.Unlock()
	return raw, nil
}

func (r *Registry) load(name string, src BundleSource) ([]byte, error) {
	if src.Path != "" {
		raw, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", name, err)
		}
		return raw, nil
	}

	resp, err := r.http.Get(src.URL)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: fetch %s: %w", name, src.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("bundle %s: fetch %s: status %d", name, src.URL, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: fetch %s: %w", name, src.URL, err)
	}

	r.log.Info("bundle fetched", zap.String("bundle", name), zap.Int("bytes", len(raw)))
	return raw, nil
}
