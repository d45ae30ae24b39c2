package meals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Files names the five catalog files.
type Files struct {
	Breakfast string
	Snack1    string
	Lunch     string
	Snack2    string
	Dinner    string
}

// FilesIn returns the conventional catalog file names inside dir.
func FilesIn(dir string) Files {
	return Files{
		Breakfast: filepath.Join(dir, "breakfast.json"),
		Snack1:    filepath.Join(dir, "snack1.json"),
		Lunch:     filepath.Join(dir, "lunch.json"),
		Snack2:    filepath.Join(dir, "snack2.json"),
		Dinner:    filepath.Join(dir, "dinner.json"),
	}
}

func (f Files) paths() []string {
	return []string{f.Breakfast, f.Snack1, f.Lunch, f.Snack2, f.Dinner}
}

// LoadCatalogs reads all five catalogs. A missing file yields an empty
// catalog; a malformed one is an error.
func LoadCatalogs(f Files) (Catalogs, error) {
	var c Catalogs
	targets := []*[]Meal{&c.Breakfast, &c.Snack1, &c.Lunch, &c.Snack2, &c.Dinner}
	for i, path := range f.paths() {
		meals, err := loadCatalog(path)
		if err != nil {
			return Catalogs{}, err
		}
		*targets[i] = meals
	}
	return c, nil
}

func loadCatalog(path string) ([]Meal, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var meals []Meal
	if err := json.Unmarshal(data, &meals); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return meals, nil
}

// ReloadRecorder receives one observation per catalog reload.
type ReloadRecorder interface {
	RecordCatalogReload(result string)
}

type nopReloadRecorder struct{}

func (nopReloadRecorder) RecordCatalogReload(string) {}

// DefaultDebounce is how long Watch waits for writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Source serves the current catalogs and reloads them when the files change.
type Source struct {
	files    Files
	logger   *slog.Logger
	recorder ReloadRecorder
	debounce time.Duration

	mu       sync.RWMutex
	catalogs Catalogs
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithSourceLogger sets the logger.
func WithSourceLogger(l *slog.Logger) SourceOption {
	return func(s *Source) { s.logger = l }
}

// WithReloadRecorder sets the metrics recorder.
func WithReloadRecorder(r ReloadRecorder) SourceOption {
	return func(s *Source) { s.recorder = r }
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) SourceOption {
	return func(s *Source) { s.debounce = d }
}

// NewSource loads the catalogs once and returns a Source serving them.
func NewSource(files Files, opts ...SourceOption) (*Source, error) {
	s := &Source{
		files:    files,
		logger:   slog.Default(),
		recorder: nopReloadRecorder{},
		debounce: DefaultDebounce,
	}
	for _, o := range opts {
		o(s)
	}
	c, err := LoadCatalogs(files)
	if err != nil {
		return nil, err
	}
	s.catalogs = c
	return s, nil
}

// Catalogs returns the current catalogs.
func (s *Source) Catalogs() Catalogs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalogs
}

// Select picks the plan for date from the current catalogs.
func (s *Source) Select(date time.Time) MenuPlan {
	return s.Catalogs().Select(date)
}

// Reload rereads the files. On error the previous catalogs stay in place.
func (s *Source) Reload() error {
	c, err := LoadCatalogs(s.files)
	if err != nil {
		s.recorder.RecordCatalogReload("error")
		return err
	}
	s.mu.Lock()
	s.catalogs = c
	s.mu.Unlock()
	s.recorder.RecordCatalogReload("ok")
	return nil
}

// Watch reloads the catalogs whenever one of the files is written, created
// or renamed into place. It watches the parent directories so that editors
// replacing files are noticed. Blocks until ctx is cancelled.
func (s *Source) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range s.files.paths() {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	s.logger.Info("watching meal catalogs", slog.Int("dirs", len(dirs)))

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !watched[abs] {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("catalog watcher error", slog.String("error", err.Error()))
		case <-fire:
			fire = nil
			if err := s.Reload(); err != nil {
				s.logger.Error("reload meal catalogs failed, keeping previous", slog.String("error", err.Error()))
				continue
			}
			s.logger.Info("meal catalogs reloaded")
		}
	}
}
