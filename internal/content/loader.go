package content

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ymhc/dailyemail/internal/config"
)

// BackgroundExtensions is the allow-list for background images.
var BackgroundExtensions = []string{".jpg", ".jpeg", ".png"}

// Loader reads the static data files named in the content config.
type Loader struct {
	cfg config.ContentConfig
}

// NewLoader creates a Loader for the given paths.
func NewLoader(cfg config.ContentConfig) *Loader {
	return &Loader{cfg: cfg}
}

// Load reads messages, activities, resources and the background listing.
func (l *Loader) Load() (*Collections, error) {
	messages, err := LoadLines(l.cfg.MessagesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	activities, err := LoadLines(l.cfg.ActivitiesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}

	resources, err := LoadResources(l.cfg.ResourcesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load resources: %w", err)
	}

	backgrounds, err := ListBackgrounds(l.cfg.BackgroundsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list backgrounds: %w", err)
	}

	return &Collections{
		Messages:    messages,
		Activities:  activities,
		Resources:   resources,
		Backgrounds: backgrounds,
	}, nil
}

// LoadLines returns the trimmed, non-blank lines of a UTF-8 text file.
func LoadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return lines, nil
}

// LoadResources decodes a list of resource records. Files ending in .yaml or
// .yml are read as YAML, everything else as JSON.
func LoadResources(path string) ([]Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var resources []Resource
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &resources)
	default:
		err = json.Unmarshal(data, &resources)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return resources, nil
}

// ListBackgrounds returns the names of the files in dir whose extension is in
// BackgroundExtensions. A missing directory yields no backgrounds.
func ListBackgrounds(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if HasExtension(entry.Name(), BackgroundExtensions) {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}

// HasExtension reports whether name ends in one of exts, ignoring case.
func HasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range exts {
		if ext == allowed {
			return true
		}
	}
	return false
}
