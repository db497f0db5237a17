package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"deephelper/pkg/types"
)

// GGUFScanner discovers *.gguf model files in a directory.
type GGUFScanner struct{}

// NewGGUFScanner returns a scanner for llama.cpp model files.
func NewGGUFScanner() GGUFScanner { return GGUFScanner{} }

// quantRe matches llama.cpp quantization tags such as Q4_K_M, Q8_0 or F16.
var quantRe = regexp.MustCompile(`(?i)[._-]((?:IQ|Q)[0-9]+(?:_[0-9A-Z]+)*|F16|F32|BF16)$`)

// Scan lists *.gguf files (case-insensitive) in dir. ID is the file name,
// Name is the file name without extension and Path is absolute.
func (GGUFScanner) Scan(dir string) ([]types.Model, error) {
	base, err := expandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if !strings.EqualFold(ext, ".gguf") {
			continue
		}
		stem := strings.TrimSuffix(name, ext)
		m := types.Model{ID: name, Name: stem, Path: filepath.Join(abs, name)}
		if q := quantRe.FindStringSubmatch(stem); q != nil {
			m.Quant = strings.ToUpper(q[1])
		}
		if fi, err := e.Info(); err == nil {
			m.SizeBytes = fi.Size()
		}
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// LoadDir is a convenience wrapper around NewGGUFScanner().Scan.
func LoadDir(dir string) ([]types.Model, error) {
	return NewGGUFScanner().Scan(dir)
}

// Resolve finds the model matching id. Matching is exact on the file name
// first, then case-insensitive on the name without extension, then on the
// last path segment of a hub-style identifier ("org/name").
func Resolve(models []types.Model, id string) (types.Model, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.Model{}, false
	}
	for _, m := range models {
		if m.ID == id {
			return m, true
		}
	}
	for _, m := range models {
		if strings.EqualFold(m.Name, id) {
			return m, true
		}
	}
	// "microsoft/DialoGPT-medium" matches "DialoGPT-medium.Q4_K_M.gguf"
	short := strings.ToLower(id[strings.LastIndex(id, "/")+1:])
	for _, m := range models {
		name := strings.ToLower(m.Name)
		if name == short || strings.HasPrefix(name, short+".") || strings.HasPrefix(name, short+"-q") {
			return m, true
		}
	}
	return types.Model{}, false
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
