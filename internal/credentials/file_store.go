package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// reloadDebounce coalesces the burst of events an editor produces on save.
const reloadDebounce = 500 * time.Millisecond

// FileStore reads secret documents from a local YAML file.
//
// The file maps secret ids to documents:
//
//	jarvis/homeassistant:
//	  url: http://homeassistant.local:8123
//	  token: eyJ...
//
// A document may also be given as a JSON string. The file is re-read on
// every GetSecret, so a Provider picks up edits after Invalidate.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// GetSecret implements Store.
func (s *FileStore) GetSecret(_ context.Context, id string) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: secrets file %s does not exist", ErrSecretNotFound, s.path)
		}
		return nil, fmt.Errorf("reading secrets file: %w", err)
	}

	var secrets map[string]any
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parsing secrets file: %w", err)
	}

	doc, ok := secrets[id]
	if !ok || doc == nil {
		return nil, fmt.Errorf("%w: %q", ErrSecretNotFound, id)
	}

	if str, ok := doc.(string); ok {
		return []byte(str), nil
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding secret %q: %w", id, err)
	}
	return out, nil
}

// Watch calls onChange after the secrets file is written, created, renamed
// or removed. The parent directory is watched because editors and secret
// agents usually replace the file rather than write it in place. Watch
// blocks until ctx is cancelled.
func (s *FileStore) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)

	var (
		mu       sync.Mutex
		debounce *time.Timer
	)
	defer func() {
		mu.Lock()
		if debounce != nil {
			debounce.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			mu.Lock()
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, onChange)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("file watcher: %w", err)
		}
	}
}
