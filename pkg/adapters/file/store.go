package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/stepsheet/pkg/domain"
)

// Format is the on-disk encoding of an analysis.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// extensions are tried in this order when loading.
var extensions = []string{".json", ".yaml", ".yml"}

// Store implements ports.AnalysisStore using the local filesystem.
// It stores one file per analysis in a configured directory.
type Store struct {
	BasePath string
	format   Format
}

// Option configures the Store.
type Option func(*Store)

// WithFormat selects the encoding used by Save. Load accepts both.
func WithFormat(format Format) Option {
	return func(s *Store) {
		s.format = format
	}
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".stepsheet/analyses".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".stepsheet", "analyses")
	}
	s := &Store{BasePath: basePath, format: FormatJSON}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ext() string {
	if s.format == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// Save persists the analysis atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, name string, analysis *domain.Analysis) error {
	if name == "" {
		return fmt.Errorf("analysis name cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure analysis directory: %w", err)
	}

	data, err := Marshal(analysis, s.format)
	if err != nil {
		return err
	}

	// Same directory keeps the rename on one filesystem
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+name+"-*"+s.ext())
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // No-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Drop copies in the other encodings so Load finds this one
	if err := s.remove(name); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, filepath.Join(s.BasePath, name+s.ext())); err != nil {
		return fmt.Errorf("failed to rename temp file to analysis: %w", err)
	}
	return nil
}

// Load retrieves the analysis saved under name.
func (s *Store) Load(ctx context.Context, name string) (*domain.Analysis, error) {
	if name == "" {
		return nil, fmt.Errorf("analysis name cannot be empty")
	}

	for _, ext := range extensions {
		analysis, err := LoadFile(filepath.Join(s.BasePath, name+ext))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if analysis.Name == "" {
			analysis.Name = name
		}
		return analysis, nil
	}
	return nil, domain.ErrAnalysisNotFound
}

// Delete removes the analysis files.
func (s *Store) Delete(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("analysis name cannot be empty")
	}
	return s.remove(name)
}

func (s *Store) remove(name string) error {
	for _, ext := range extensions {
		err := os.Remove(filepath.Join(s.BasePath, name+ext))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete analysis file: %w", err)
		}
	}
	return nil
}

// List returns the names of all saved analyses.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	seen := make(map[string]bool)
	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "tmp-") {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !isAnalysisExt(ext) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func isAnalysisExt(ext string) bool {
	for _, e := range extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// LoadFile reads an analysis file, choosing JSON or YAML by extension.
// A missing file returns an error satisfying os.IsNotExist.
func LoadFile(path string) (*domain.Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read analysis file: %w", err)
	}

	format := FormatYAML
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = FormatJSON
	}
	return Unmarshal(data, format)
}

// Marshal encodes an analysis in the given format.
func Marshal(analysis *domain.Analysis, format Format) ([]byte, error) {
	if format == FormatYAML {
		data, err := yaml.Marshal(analysis)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal analysis: %w", err)
		}
		return data, nil
	}
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis: %w", err)
	}
	return data, nil
}

// Unmarshal decodes an analysis in the given format.
func Unmarshal(data []byte, format Format) (*domain.Analysis, error) {
	var analysis domain.Analysis
	if format == FormatJSON {
		if err := json.Unmarshal(data, &analysis); err != nil {
			return nil, fmt.Errorf("failed to parse analysis json: %w", err)
		}
		return &analysis, nil
	}
	// Default to YAML
	if err := yaml.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse analysis yaml: %w", err)
	}
	return &analysis, nil
}
