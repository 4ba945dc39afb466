// Package prompts provides a loader for the role prompt templates.
// Prompts are stored as JSON files and embedded at compile time.
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
var promptFiles embed.FS

// InterviewFile is the prompt file holding the interviewer, evaluator and coach templates.
const InterviewFile = "interview.json"

// cache holds parsed prompt files by name.
var (
	cache   = make(map[string]map[string]string)
	cacheMu sync.RWMutex
)

var placeholderPattern = regexp.MustCompile(`\{\{\.[A-Za-z][A-Za-z0-9_]*\}\}`)

// Get retrieves a prompt by filename and key.
// The filename should not include the path (e.g., "interview.json").
func Get(filename, key string) (string, error) {
	prompts, err := loadFile(filename)
	if err != nil {
		return "", err
	}

	prompt, exists := prompts[key]
	if !exists {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}

	return prompt, nil
}

// Render loads a template and fills it. Placeholders left without a value are an error.
// Values are substituted once, so placeholder-like text inside a value is left alone.
func Render(filename, key string, data map[string]string) (string, error) {
	template, err := Get(filename, key)
	if err != nil {
		return "", err
	}

	if missing := missingKeys(template, data); len(missing) > 0 {
		return "", fmt.Errorf("prompt %s/%s: missing values for %s", filename, key, strings.Join(missing, ", "))
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(placeholder string) string {
		return data[placeholder[3:len(placeholder)-2]]
	}), nil
}

func missingKeys(template string, data map[string]string) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, placeholder := range placeholderPattern.FindAllString(template, -1) {
		name := placeholder[3 : len(placeholder)-2]
		if _, ok := data[name]; !ok && !seen[name] {
			missing = append(missing, name)
		}
		seen[name] = true
	}
	sort.Strings(missing)
	return missing
}

// loadFile loads and caches a prompt file.
func loadFile(filename string) (map[string]string, error) {
	cacheMu.RLock()
	if prompts, exists := cache[filename]; exists {
		cacheMu.RUnlock()
		return prompts, nil
	}
	cacheMu.RUnlock()

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var prompts map[string]string
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	cacheMu.Lock()
	cache[filename] = prompts
	cacheMu.Unlock()

	return prompts, nil
}
