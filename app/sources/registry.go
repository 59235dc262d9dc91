package sources

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/lysyi3m/quickwatch/app/domain"
	"gopkg.in/yaml.v3"
)

type Registry struct {
	sourcesDir string
	dataDir    string
	cache      map[string]*Archive
	mu         sync.RWMutex
}

func NewRegistry(sourcesDir, dataDir string) *Registry {
	return &Registry{
		sourcesDir: sourcesDir,
		dataDir:    dataDir,
		cache:      make(map[string]*Archive),
	}
}

// Run loads every *.yml definition in the sources directory. A missing
// directory is not an error; callers register defaults instead.
func (r *Registry) Run() error {
	if _, err := os.Stat(r.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(r.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")

		archive, err := r.LoadArchive(name)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Archive source loaded", "archive", name, "path", archive.Path, "enabled", archive.IsEnabled())
	}

	return nil
}

func (r *Registry) LoadArchive(name string) (*Archive, error) {
	file := filepath.Join(r.sourcesDir, name+".yml")

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var archive Archive
	if err := yaml.Unmarshal(data, &archive); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	archive.Name = name

	if err := r.Register(&archive); err != nil {
		return nil, fmt.Errorf("invalid source %s: %w", file, err)
	}

	return &archive, nil
}

// Register validates an archive, resolves its path against the data
// directory and stores it, replacing any archive of the same name.
func (r *Registry) Register(archive *Archive) error {
	if archive == nil {
		return fmt.Errorf("archive is nil")
	}
	if archive.Name == "" {
		return fmt.Errorf("archive name is required")
	}
	if archive.Path == "" {
		return fmt.Errorf("archive path is required")
	}

	if archive.Label == "" {
		archive.Label = archive.Name
	}
	if !filepath.IsAbs(archive.Path) {
		archive.Path = filepath.Join(r.dataDir, archive.Path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[archive.Name] = archive

	return nil
}

// Get returns an enabled archive by name.
func (r *Registry) Get(name string) (*Archive, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	archive, ok := r.cache[name]
	if !ok || !archive.IsEnabled() {
		return nil, fmt.Errorf("archive '%s': %w", name, domain.ErrNotFound)
	}
	return archive, nil
}

// List returns the enabled archives ordered by name.
func (r *Registry) List() []*Archive {
	r.mu.RLock()
	defer r.mu.RUnlock()

	archives := make([]*Archive, 0, len(r.cache))
	for _, archive := range r.cache {
		if archive.IsEnabled() {
			archives = append(archives, archive)
		}
	}
	slices.SortFunc(archives, func(a, b *Archive) int {
		return strings.Compare(a.Name, b.Name)
	})
	return archives
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// RegisterDefaults adds the official and third-party archives when no
// definitions were loaded from disk.
func (r *Registry) RegisterDefaults(officialPath, officialURL, thirdPartyPath, thirdPartyURL string) error {
	if r.Count() > 0 {
		return nil
	}

	defaults := []*Archive{
		{Name: "official", Label: "Official Channels", Path: officialPath, BootstrapURL: officialURL},
		{Name: "third_party", Label: "Third-Party Channels", Path: thirdPartyPath, BootstrapURL: thirdPartyURL},
	}
	for _, archive := range defaults {
		if err := r.Register(archive); err != nil {
			return err
		}
	}
	return nil
}
