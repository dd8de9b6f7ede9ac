// Package prompts holds the LLM prompt templates embedded at compile time.
// Each JSON file maps a prompt key to a template with {{.Name}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var files embed.FS

var placeholder = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

var (
	mu     sync.Mutex
	loaded = map[string]map[string]string{}
)

// Get returns the template stored under key in file.
func Get(file, key string) (string, error) {
	set, err := load(file)
	if err != nil {
		return "", err
	}
	tmpl, ok := set[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, file)
	}
	return tmpl, nil
}

// MustGet panics when the prompt is missing.
func MustGet(file, key string) string {
	tmpl, err := Get(file, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return tmpl
}

// Render loads a template and fills every placeholder from data. A
// placeholder with no value is an error, so a prompt never reaches the model
// half-filled. Values are inserted verbatim and never re-expanded.
func Render(file, key string, data map[string]string) (string, error) {
	tmpl, err := Get(file, key)
	if err != nil {
		return "", err
	}

	var missing []string
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		v, ok := data[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %s/%s: no value for %s", file, key, strings.Join(missing, ", "))
	}
	return out, nil
}

// Format fills the placeholders it has values for and leaves the rest.
func Format(tmpl string, data map[string]string) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		if v, ok := data[placeholder.FindStringSubmatch(m)[1]]; ok {
			return v
		}
		return m
	})
}

// Placeholders lists the distinct placeholder names in tmpl, sorted.
func Placeholders(tmpl string) []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}

// List returns the prompt keys in file, sorted.
func List(file string) ([]string, error) {
	set, err := load(file)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// ClearCache drops parsed files. Tests use it to force a reload.
func ClearCache() {
	mu.Lock()
	loaded = map[string]map[string]string{}
	mu.Unlock()
}

func load(file string) (map[string]string, error) {
	mu.Lock()
	defer mu.Unlock()

	if set, ok := loaded[file]; ok {
		return set, nil
	}
	data, err := files.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", file, err)
	}
	var set map[string]string
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", file, err)
	}
	loaded[file] = set
	return set, nil
}
