package curriculum

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Loader loads and caches curriculum topics from the filesystem.
type Loader struct {
	rootDir string
	topics  map[string]Topic
	schema  *gojsonschema.Schema
	mu      sync.RWMutex
}

// NewLoader creates a new curriculum loader and loads all topic files.
func NewLoader(rootDir string) (*Loader, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(topicSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling topic schema: %w", err)
	}

	l := &Loader{
		rootDir: rootDir,
		topics:  make(map[string]Topic),
		schema:  schema,
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading curriculum: %w", err)
	}

	slog.Info("curriculum loaded", "topics", len(l.topics))
	return l, nil
}

// GetTopic returns a topic by ID.
func (l *Loader) GetTopic(id string) (Topic, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.topics[id]
	return t, ok
}

// AllTopics returns all loaded topics.
func (l *Loader) AllTopics() []Topic {
	l.mu.RLock()
	defer l.mu.RUnlock()
	topics := make([]Topic, 0, len(l.topics))
	for _, t := range l.topics {
		topics = append(topics, t)
	}
	return topics
}

// Graph builds an adjacency graph over all loaded topics.
func (l *Loader) Graph() *Graph {
	return NewGraph(l.AllTopics())
}

func (l *Loader) loadAll() error {
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		if strings.HasSuffix(path, ".questions.yaml") {
			return nil // Question banks are seeded separately
		}
		return l.loadTopic(path)
	})
}

func (l *Loader) loadTopic(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Decode twice: once generically for schema validation, once into the
	// typed struct. gojsonschema needs plain maps, not struct tags.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		slog.Warn("skipping invalid topic YAML", "path", path, "error", err)
		return nil
	}
	if raw == nil {
		return nil // Empty file
	}

	result, err := l.schema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		slog.Warn("skipping unvalidatable topic", "path", path, "error", err)
		return nil
	}
	if !result.Valid() {
		slog.Warn("skipping schema-invalid topic", "path", path, "issues", schemaIssues(result))
		return nil
	}

	var topic Topic
	if err := yaml.Unmarshal(data, &topic); err != nil {
		slog.Warn("skipping invalid topic YAML", "path", path, "error", err)
		return nil
	}

	l.mu.Lock()
	l.topics[topic.ID] = topic
	l.mu.Unlock()

	return nil
}

func schemaIssues(result *gojsonschema.Result) string {
	var parts []string
	for _, e := range result.Errors() {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, "; ")
}
