// Package session manages live editing sessions over a directory of
// document files: one container per file, kept in sync with external
// writers through a filesystem watcher. The container's echo suppression
// keeps the write-file/watch-file cycle from feeding back on itself.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/editor"
	"github.com/starford/laguz/internal/schema"
	"github.com/starford/laguz/internal/sse"
)

const docExt = ".html"

// Manager owns the containers for every open document under a root
// directory.
type Manager struct {
	mu           sync.Mutex
	root         string
	reg          *schema.Registry
	broker       *sse.Broker
	log          *slog.Logger
	historyDepth int
	containers   map[string]*editor.Container
}

// NewManager creates a session manager over the directory.
func NewManager(root string, reg *schema.Registry, broker *sse.Broker, log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	return &Manager{
		root:       root,
		reg:        reg,
		broker:     broker,
		log:        log,
		containers: map[string]*editor.Container{},
	}, nil
}

// SetHistoryDepth sets the undo depth for containers opened after the
// call. Zero keeps the editor default.
func (m *Manager) SetHistoryDepth(depth int) {
	m.mu.Lock()
	m.historyDepth = depth
	m.mu.Unlock()
}

// List returns the document names on disk, sorted.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), docExt) {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), docExt))
	}
	sort.Strings(out)
	return out, nil
}

// Open returns the container for a document, loading it from disk on
// first access. A document that does not exist yet starts empty and is
// created on its first edit.
func (m *Manager) Open(name string) (*editor.Container, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.containers[name]; ok {
		return c, nil
	}

	c := editor.NewContainer(m.reg, m.log)
	if m.historyDepth > 0 {
		c.Dispatcher().SetHistoryDepth(m.historyDepth)
	}
	data, err := os.ReadFile(m.path(name))
	switch {
	case err == nil:
		if _, err := c.SetContent(string(data)); err != nil {
			return nil, fmt.Errorf("load document %s: %w", name, err)
		}
	case os.IsNotExist(err):
		// Fresh document; the default paragraph is already in place.
	default:
		return nil, err
	}

	c.OnContent(func(markup string) {
		if err := m.persist(name, markup); err != nil {
			m.log.Error("persist failed", "document", name, "error", err.Error())
			return
		}
		m.broker.PublishDocumentEvent("updated", name+docExt)
	})
	m.containers[name] = c
	return c, nil
}

// Reload re-reads a document from disk into its container. Content equal
// to what the container last wrote is the echo of our own persist and is
// ignored. Reports whether the container changed.
func (m *Manager) Reload(name string) (bool, error) {
	m.mu.Lock()
	c, ok := m.containers[name]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	data, err := os.ReadFile(m.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return c.SetContent(string(data))
}

// Close drops a document's container, abandoning unpersisted state.
func (m *Manager) Close(name string) {
	m.mu.Lock()
	delete(m.containers, name)
	m.mu.Unlock()
}

// Watch runs a filesystem watcher on the documents directory until ctx is
// cancelled, reloading open containers when their files change under us.
func (m *Manager) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(m.root); err != nil {
		return err
	}
	m.log.Info("session watcher: started", slog.String("root", m.root))

	for {
		select {
		case <-ctx.Done():
			m.log.Info("session watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, docExt) {
				continue
			}
			name := strings.TrimSuffix(filepath.Base(ev.Name), docExt)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				changed, err := m.Reload(name)
				if err != nil {
					m.log.Warn("session watcher: reload failed",
						slog.String("document", name), slog.String("error", err.Error()))
					continue
				}
				if changed {
					m.log.Debug("session watcher: reloaded", slog.String("document", name))
					m.broker.PublishDocumentEvent("updated", name+docExt)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				m.Close(name)
				m.broker.PublishDocumentEvent("deleted", name+docExt)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			m.log.Error("session watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (m *Manager) persist(name, markup string) error {
	return os.WriteFile(m.path(name), []byte(markup), 0o644)
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.root, name+docExt)
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return fmt.Errorf("document name %q: %w", name, apperr.ErrInvalidAttrs)
	}
	return nil
}
