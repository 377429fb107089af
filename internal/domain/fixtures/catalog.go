package fixtures

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/logging"
)

// Catalog is the seed data copied into every new desktop session
type Catalog struct {
	Emails    map[string][]Email    `yaml:"emails"`
	Files     map[string][]File     `yaml:"files"`
	Documents map[string][]Document `yaml:"documents"`
}

// DefaultCatalog returns the built-in seed data
func DefaultCatalog() Catalog {
	return Catalog{
		Emails:    seedEmails(),
		Files:     seedFiles(),
		Documents: seedDocuments(),
	}
}

// ParseCatalog decodes a YAML catalog. Sections that are absent keep the
// built-in seed data.
func ParseCatalog(data []byte) (Catalog, error) {
	var parsed Catalog
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse fixture catalog: %w", err)
	}

	cat := DefaultCatalog()
	if parsed.Emails != nil {
		cat.Emails = parsed.Emails
	}
	if parsed.Files != nil {
		cat.Files = parsed.Files
	}
	if parsed.Documents != nil {
		cat.Documents = parsed.Documents
	}
	return cat, nil
}

// LoadCatalog reads a YAML catalog from disk
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read fixture catalog: %w", err)
	}
	return ParseCatalog(data)
}

// EmailSet returns a fresh dataset of the catalog's emails
func (c Catalog) EmailSet() *Dataset[Email] { return NewDataset(EmailKey, c.Emails) }

// FileSet returns a fresh dataset of the catalog's files
func (c Catalog) FileSet() *Dataset[File] { return NewDataset(FileKey, c.Files) }

// DocumentSet returns a fresh dataset of the catalog's documents
func (c Catalog) DocumentSet() *Dataset[Document] { return NewDataset(DocumentKey, c.Documents) }

// Provider serves the current catalog and reloads it when the backing
// file changes. Sessions copy the catalog when they seed an app, so a
// reload only affects apps opened afterwards.
type Provider struct {
	mu      sync.RWMutex
	catalog Catalog // Protected by mu
	path    string
	log     *logging.Logger
}

// NewProvider creates a provider. An empty path serves the built-in
// catalog.
func NewProvider(path string, log *logging.Logger) (*Provider, error) {
	if log == nil {
		log = logging.NewNop()
	}
	p := &Provider{catalog: DefaultCatalog(), path: path, log: log}
	if path == "" {
		return p, nil
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Catalog returns the current catalog
func (p *Provider) Catalog() Catalog {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.catalog
}

// Reload re-reads the catalog file. On error the previous catalog stays.
func (p *Provider) Reload() error {
	if p.path == "" {
		return nil
	}
	cat, err := LoadCatalog(p.path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.catalog = cat
	p.mu.Unlock()
	return nil
}

// Watch reloads the catalog whenever its file is written, until ctx is
// cancelled. The parent directory is watched so editors that replace the
// file by rename are picked up too.
func (p *Provider) Watch(ctx context.Context) error {
	if p.path == "" {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fixture watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(p.path)); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch fixture catalog: %w", err)
	}

	go p.watchLoop(ctx, w)
	return nil
}

func (p *Provider) watchLoop(ctx context.Context, w *fsnotify.Watcher) {
	const debounceWindow = 250 * time.Millisecond
	defer w.Close()

	target := filepath.Clean(p.path)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Coalesce bursts of events from a single save
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				timer.Reset(debounceWindow)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := p.Reload(); err != nil {
				p.log.Warn("Fixture catalog reload failed", zap.String("path", p.path), zap.Error(err))
				continue
			}
			p.log.Info("Fixture catalog reloaded", zap.String("path", p.path))
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			p.log.Warn("Fixture watcher error", zap.Error(err))
		}
	}
}
