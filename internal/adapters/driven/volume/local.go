// Package volume provides a local-directory implementation of driven.Volume.
package volume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driven"
	"github.com/trakhound/trakhound-core/internal/logger"
)

// Ensure Local implements the interface.
var _ driven.Volume = (*Local)(nil)

// Local is a Volume rooted at a directory on disk. Writes go through a
// hidden temporary file and a rename so readers never see partial content.
type Local struct {
	root string
	log  *logger.Logger
}

// NewLocal creates a volume rooted at root, creating it if needed.
func NewLocal(root string, log *logger.Logger) (*Local, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("creating volume root: %w", err)
	}
	return &Local{root: root, log: log.Named("volume")}, nil
}

// Root returns the volume directory.
func (v *Local) Root() string {
	return v.root
}

// resolve maps a volume path to a file path, rejecting paths that leave
// the root.
func (v *Local) resolve(p string) (string, error) {
	clean := path.Clean(strings.TrimPrefix(filepath.ToSlash(p), "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: volume path %q escapes root", domain.ErrInvalidInput, p)
	}
	return filepath.Join(v.root, filepath.FromSlash(clean)), nil
}

// ListFiles returns the paths of the regular files directly under dir,
// sorted by name. A missing directory has no files.
func (v *Local) ListFiles(dir string) ([]string, error) {
	full, err := v.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || isHidden(e.Name()) {
			continue
		}
		files = append(files, path.Join(dir, e.Name()))
	}
	return files, nil
}

// ReadString returns the content of a file.
func (v *Local) ReadString(p string) (string, error) {
	full, err := v.resolve(p)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("reading %s: %w", p, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", p, err)
	}
	return string(b), nil
}

// WriteString replaces the content of a file.
func (v *Local) WriteString(p, content string) error {
	full, err := v.resolve(p)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating %s: %w", path.Dir(p), err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("replacing %s: %w", p, err)
	}
	return nil
}

// ReadJSON decodes a JSON file into out.
func (v *Local) ReadJSON(p string, out any) error {
	content, err := v.ReadString(p)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("decoding %s: %w", p, err)
	}
	return nil
}

// WriteJSON encodes value as JSON into a file.
func (v *Local) WriteJSON(p string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", p, err)
	}
	return v.WriteString(p, string(b))
}

// Delete removes a file. Deleting a missing file is not an error.
func (v *Local) Delete(p string) error {
	full, err := v.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", p, err)
	}
	return nil
}

// CreateListener watches dir (not recursively) until ctx ends or the
// listener is closed. Hidden files are ignored.
func (v *Local) CreateListener(ctx context.Context, dir string) (driven.VolumeListener, error) {
	full, err := v.resolve(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(full, 0700); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(full); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	l := &listener{
		watcher: watcher,
		dir:     dir,
		events:  make(chan driven.VolumeEvent, 64),
		done:    make(chan struct{}),
		log:     v.log,
	}
	go l.run(ctx)
	return l, nil
}

type listener struct {
	watcher *fsnotify.Watcher
	dir     string
	events  chan driven.VolumeEvent
	done    chan struct{}
	once    sync.Once
	log     *logger.Logger
}

func (l *listener) Events() <-chan driven.VolumeEvent {
	return l.events
}

func (l *listener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		err = l.watcher.Close()
	})
	return err
}

func (l *listener) run(ctx context.Context) {
	defer close(l.events)
	defer l.Close() //nolint:errcheck // watcher errors are logged below

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if isHidden(name) {
				continue
			}
			typ, ok := convertOp(event.Op)
			if !ok {
				continue
			}
			select {
			case l.events <- driven.VolumeEvent{Type: typ, Path: path.Join(l.dir, name)}:
			case <-ctx.Done():
				return
			case <-l.done:
				return
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.log.Warn("watching %s: %v", l.dir, err)
		}
	}
}

// convertOp maps an fsnotify operation to a volume event type. Chmod is
// not reported.
func convertOp(op fsnotify.Op) (driven.VolumeEventType, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return driven.VolumeEventCreated, true
	case op.Has(fsnotify.Write):
		return driven.VolumeEventChanged, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return driven.VolumeEventDeleted, true
	default:
		return "", false
	}
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
