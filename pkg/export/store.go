// Package export keeps exported chart images on disk with a JSON metadata
// sidecar per image.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vanderheijden86/chartpin/pkg/chart"
	"github.com/vanderheijden86/chartpin/pkg/debug"
)

// ErrNotFound is returned for unknown snapshot ids.
var ErrNotFound = errors.New("snapshot not found")

var uuidRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Meta describes a stored snapshot.
type Meta struct {
	ID          string    `json:"id"`
	Format      string    `json:"format"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	SizeBytes   int       `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
	Title       string    `json:"title,omitempty"`
	PinnedPoint string    `json:"pinned_point,omitempty"`
	Tooltip     []string  `json:"tooltip,omitempty"`
}

// Capture renders c through ExportLocal and returns the image with its
// metadata. It must run where c lives; the result can be saved from any
// goroutine.
func Capture(c *chart.Chart, format chart.Format, width, height int) (Meta, []byte, error) {
	var buf bytes.Buffer
	res, err := c.ExportLocal(chart.ExportOptions{Writer: &buf, Format: format, Width: width, Height: height}, chart.Options{})
	if err != nil {
		return Meta{}, nil, err
	}
	meta := Meta{
		ID:        uuid.NewString(),
		Format:    string(res.Format),
		Width:     res.Width,
		Height:    res.Height,
		SizeBytes: buf.Len(),
		CreatedAt: time.Now().UTC(),
		Title:     c.Options().Title,
		Tooltip:   res.Tooltip,
	}
	if res.TooltipFrom != nil {
		meta.PinnedPoint = res.TooltipFrom.Name
	}
	return meta, buf.Bytes(), nil
}

// Store manages snapshot files in one directory.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a Store and ensures the directory exists.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot store: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

func validateID(id string) error {
	if !uuidRe.MatchString(id) {
		return fmt.Errorf("invalid snapshot id: %q", id)
	}
	return nil
}

func (s *Store) imagePath(m Meta) string { return filepath.Join(s.dir, m.ID+"."+m.Format) }

func (s *Store) metaPath(id string) string { return filepath.Join(s.dir, id+".json") }

// Save writes the image and its metadata sidecar and returns the image
// path.
func (s *Store) Save(meta Meta, image []byte) (string, error) {
	if err := validateID(meta.ID); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	imgPath := s.imagePath(meta)
	if err := os.WriteFile(imgPath, image, 0o644); err != nil {
		return "", fmt.Errorf("snapshot store: write image: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		_ = os.Remove(imgPath)
		return "", fmt.Errorf("snapshot store: marshal meta: %w", err)
	}
	if err := os.WriteFile(s.metaPath(meta.ID), data, 0o644); err != nil {
		_ = os.Remove(imgPath)
		return "", fmt.Errorf("snapshot store: write meta: %w", err)
	}
	debug.Log("export: saved %s (%d bytes, pinned %q)", imgPath, len(image), meta.PinnedPoint)
	return imgPath, nil
}

// Get reads snapshot metadata by ID.
func (s *Store) Get(id string) (Meta, error) {
	if err := validateID(id); err != nil {
		return Meta{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readMeta(s.metaPath(id))
}

func (s *Store) readMeta(path string) (Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return Meta{}, fmt.Errorf("snapshot store: read meta: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, fmt.Errorf("snapshot store: unmarshal meta: %w", err)
	}
	return meta, nil
}

// List returns all snapshots, newest first. Unreadable sidecars are skipped.
func (s *Store) List() ([]Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("snapshot store: glob: %w", err)
	}

	metas := make([]Meta, 0, len(matches))
	for _, path := range matches {
		meta, err := s.readMeta(path)
		if err != nil {
			continue
		}
		metas = append(metas, meta)
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})
	return metas, nil
}

// ReadImage returns the image bytes and format of a snapshot.
func (s *Store) ReadImage(id string) ([]byte, string, error) {
	meta, err := s.Get(id)
	if err != nil {
		return nil, "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.imagePath(meta))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: image %s", ErrNotFound, id)
		}
		return nil, "", fmt.Errorf("snapshot store: read image: %w", err)
	}
	return data, meta.Format, nil
}

// Delete removes the image and its sidecar.
func (s *Store) Delete(id string) error {
	meta, err := s.Get(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_ = os.Remove(s.imagePath(meta))
	if err := os.Remove(s.metaPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("snapshot store: delete: %w", err)
	}
	return nil
}
