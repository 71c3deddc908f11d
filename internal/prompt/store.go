package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"tutorbot/internal/logging"
)

// =============================================================================
// TEMPLATE STORE
// =============================================================================

// templateFile is the on-disk YAML form of a template.
type templateFile struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Template    string            `yaml:"template"`
	Metadata    map[string]string `yaml:"metadata"`
}

// Store holds named templates loaded from a directory.
// Plain .txt files become raw templates named after the file;
// .yaml files carry a name, description, and metadata.
type Store struct {
	dir       string
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewStore creates a store rooted at dir. The directory may not exist
// yet; Load treats a missing directory as empty.
func NewStore(dir string) *Store {
	return &Store{
		dir:       dir,
		templates: make(map[string]*Template),
	}
}

// Load reads every template file under the store directory.
// Replaces the current contents wholesale.
func (s *Store) Load() error {
	timer := logging.StartTimer(logging.CategoryTemplates, "Store.Load")
	defer timer.Stop()

	loaded := make(map[string]*Template)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			logging.TemplatesDebug("Store.Load: directory %s does not exist, store empty", s.dir)
			s.mu.Lock()
			s.templates = loaded
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("failed to read template directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		ext := strings.ToLower(filepath.Ext(entry.Name()))

		switch ext {
		case ".txt":
			tmpl, err := loadTextTemplate(path)
			if err != nil {
				logging.Get(logging.CategoryTemplates).Warn("Store.Load: skipping %s: %v", entry.Name(), err)
				continue
			}
			loaded[tmpl.Name] = tmpl

		case ".yaml", ".yml":
			tmpl, err := loadYAMLTemplate(path)
			if err != nil {
				logging.Get(logging.CategoryTemplates).Warn("Store.Load: skipping %s: %v", entry.Name(), err)
				continue
			}
			loaded[tmpl.Name] = tmpl
		}
	}

	s.mu.Lock()
	s.templates = loaded
	s.mu.Unlock()

	logging.TemplatesDebug("Store.Load: loaded %d templates from %s", len(loaded), s.dir)
	return nil
}

func loadTextTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return New(name, string(data)), nil
}

func loadYAMLTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tf templateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("invalid template YAML: %w", err)
	}

	if tf.Template == "" {
		return nil, fmt.Errorf("template field is empty")
	}
	if tf.Name == "" {
		tf.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	tmpl := New(tf.Name, tf.Template)
	tmpl.Description = tf.Description
	tmpl.Metadata = tf.Metadata
	return tmpl, nil
}

// Get returns the named template, or nil if not present.
func (s *Store) Get(name string) *Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.templates[name]
}

// GetOrDefault returns the named template from the store, falling back
// to def when no override is loaded.
func (s *Store) GetOrDefault(name string, def *Template) *Template {
	if t := s.Get(name); t != nil {
		return t
	}
	return def
}

// Names returns the sorted names of all loaded templates.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render renders the named template with vars.
func (s *Store) Render(name string, vars map[string]string) (string, error) {
	tmpl := s.Get(name)
	if tmpl == nil {
		return "", fmt.Errorf("unknown template: %s", name)
	}
	return tmpl.Render(vars)
}

// Dir returns the directory the store loads from.
func (s *Store) Dir() string {
	return s.dir
}
