// Package registry persists human-memorable descriptors per session so log
// entries and monitor output can be correlated with a stable label even when
// session names are opaque. The registry file is shared between processes;
// a filesystem watch keeps long-lived readers current.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"crosstalk/internal/logging"
)

const fileName = "descriptors.yaml"

// Entry pairs a session name with its descriptor.
type Entry struct {
	Session    string
	Descriptor string
}

type Registry struct {
	path   string
	logger *logging.Logger

	mu      sync.RWMutex
	entries map[string]string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Open loads the registry from stateDir. A missing file is an empty
// registry.
func Open(stateDir string, logger *logging.Logger) (*Registry, error) {
	if strings.TrimSpace(stateDir) == "" {
		return nil, fmt.Errorf("state dir is required")
	}
	registry := &Registry{
		path:    filepath.Join(stateDir, fileName),
		logger:  logger,
		entries: make(map[string]string),
	}
	if err := registry.reload(); err != nil {
		return nil, err
	}
	return registry, nil
}

// Watch reloads the registry whenever another process rewrites the file.
func (r *Registry) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create registry watcher: %w", err)
	}
	// Watch the directory: the file is replaced by rename on save.
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		watcher.Close()
		return fmt.Errorf("create state dir %s: %w", dir, err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch state dir %s: %w", dir, err)
	}

	r.watcher = watcher
	r.done = make(chan struct{})
	go r.run()
	return nil
}

func (r *Registry) run() {
	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != fileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := r.reload(); err != nil && r.logger != nil {
				r.logger.Warn("registry reload failed", map[string]string{"error": err.Error()})
			}
		case _, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
		case <-r.done:
			return
		}
	}
}

// Close stops the watch, if any.
func (r *Registry) Close() error {
	if r == nil || r.watcher == nil {
		return nil
	}
	close(r.done)
	return r.watcher.Close()
}

// Set stores a descriptor for a session and persists the registry.
func (r *Registry) Set(session, descriptor string) error {
	session = strings.TrimSpace(session)
	descriptor = strings.TrimSpace(descriptor)
	if session == "" {
		return fmt.Errorf("session name is required")
	}

	r.mu.Lock()
	if descriptor == "" {
		delete(r.entries, session)
	} else {
		r.entries[session] = descriptor
	}
	snapshot := make(map[string]string, len(r.entries))
	for key, value := range r.entries {
		snapshot[key] = value
	}
	r.mu.Unlock()

	return r.save(snapshot)
}

// Get returns the descriptor for a session.
func (r *Registry) Get(session string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptor, exists := r.entries[session]
	return descriptor, exists
}

// List returns all entries sorted by session name.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]Entry, 0, len(r.entries))
	for session, descriptor := range r.entries {
		entries = append(entries, Entry{Session: session, Descriptor: descriptor})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Session < entries[j].Session })
	return entries
}

func (r *Registry) reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.mu.Lock()
			r.entries = make(map[string]string)
			r.mu.Unlock()
			return nil
		}
		return fmt.Errorf("read registry %s: %w", r.path, err)
	}

	entries := make(map[string]string)
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse registry %s: %w", r.path, err)
	}

	r.mu.Lock()
	r.entries = entries
	r.mu.Unlock()
	return nil
}

// save writes atomically: temp file in the same directory, then rename.
func (r *Registry) save(entries map[string]string) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, fileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp registry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close registry: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}
