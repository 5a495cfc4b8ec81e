// Package prompts holds the LLM prompt templates and user-facing message
// templates, embedded at compile time as JSON files of key -> template.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

// RecommendFile is the prompt file used by the recommendation pipeline.
const RecommendFile = "recommend.json"

//go:embed *.json
var promptFiles embed.FS

var (
	loadOnce sync.Once
	registry map[string]map[string]string
	loadErr  error
)

func load() (map[string]map[string]string, error) {
	loadOnce.Do(func() {
		entries, err := promptFiles.ReadDir(".")
		if err != nil {
			loadErr = fmt.Errorf("failed to list prompt files: %w", err)
			return
		}
		registry = make(map[string]map[string]string, len(entries))
		for _, e := range entries {
			if e.IsDir() || path.Ext(e.Name()) != ".json" {
				continue
			}
			data, err := promptFiles.ReadFile(e.Name())
			if err != nil {
				loadErr = fmt.Errorf("failed to read prompt file %s: %w", e.Name(), err)
				return
			}
			var templates map[string]string
			if err := json.Unmarshal(data, &templates); err != nil {
				loadErr = fmt.Errorf("failed to parse prompt file %s: %w", e.Name(), err)
				return
			}
			registry[e.Name()] = templates
		}
	})
	return registry, loadErr
}

// Get retrieves a template by filename and key.
func Get(filename, key string) (string, error) {
	files, err := load()
	if err != nil {
		return "", err
	}
	templates, ok := files[filename]
	if !ok {
		return "", fmt.Errorf("prompt file %s not found", filename)
	}
	tmpl, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return tmpl, nil
}

// MustGet is Get that panics; for templates that ship with the binary.
func MustGet(filename, key string) string {
	tmpl, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return tmpl
}

// Format replaces {{.Key}} placeholders with values from data.
// Placeholders without a value are left untouched.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Render is MustGet followed by Format.
func Render(filename, key string, data map[string]string) string {
	return Format(MustGet(filename, key), data)
}

// List returns the sorted template keys of a file.
func List(filename string) ([]string, error) {
	files, err := load()
	if err != nil {
		return nil, err
	}
	templates, ok := files[filename]
	if !ok {
		return nil, fmt.Errorf("prompt file %s not found", filename)
	}
	keys := make([]string, 0, len(templates))
	for key := range templates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
