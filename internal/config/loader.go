package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

type Source struct {
	Kind   SourceKind
	Name   string // for default
	File   string
	Line   int
	Column int
}

func (s Source) String() string {
	switch s.Kind {
	case SourceFile:
		return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
	default:
		return "default"
	}
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // YAML-path -> last writer source (file only)
	Files   []string          // all loaded files, in load order
}

// Load reads the configuration from the standard location.
func Load() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the configuration at path and the files it includes.
// A missing file yields the defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	raw := RawConfig{}
	sources := map[string]Source{}
	var files []string

	if exists, err := pathExists(path); err != nil {
		return nil, err
	} else if exists {
		merged, mergedSources, mergedFiles, err := loadRawMerged(path, map[string]struct{}{}, nil)
		if err != nil {
			return nil, err
		}
		raw = merged
		sources = mergedSources
		files = mergedFiles
	}

	cfg, err := BuildEffectiveConfig(raw)
	if err != nil {
		return nil, attachSourceContext(err, sources)
	}
	if err := cfg.Validate(); err != nil {
		return nil, attachSourceContext(err, sources)
	}

	return &LoadResult{
		Config:  cfg,
		Sources: sources,
		Files:   files,
	}, nil
}

func loadRawMerged(path string, seen map[string]struct{}, stack []string) (RawConfig, map[string]Source, []string, error) {
	canon, err := canonicalPath(path)
	if err != nil {
		return RawConfig{}, nil, nil, err
	}
	for _, existing := range stack {
		if existing == canon {
			return RawConfig{}, nil, nil, fmt.Errorf("include cycle detected: %s -> %s", strings.Join(stack, " -> "), canon)
		}
	}
	if _, ok := seen[canon]; ok {
		return RawConfig{}, map[string]Source{}, nil, nil
	}
	seen[canon] = struct{}{}

	data, err := os.ReadFile(canon)
	if err != nil {
		return RawConfig{}, nil, nil, fmt.Errorf("%s: failed to read: %w", canon, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RawConfig{}, nil, nil, fmt.Errorf("%s: failed to parse yaml: %w", canon, err)
	}

	var raw RawConfig
	if err := decodeStrictYAML(data, &raw); err != nil {
		return RawConfig{}, nil, nil, fmt.Errorf("%s: %w", canon, err)
	}

	merged := RawConfig{}
	mergedSources := map[string]Source{}
	var files []string

	for _, inc := range raw.Include {
		paths, err := expandInclude(canon, inc)
		if err != nil {
			return RawConfig{}, nil, nil, fmt.Errorf("%s: include %q: %w", canon, inc, err)
		}
		for _, incPath := range paths {
			incRaw, incSources, incFiles, err := loadRawMerged(incPath, seen, append(stack, canon))
			if err != nil {
				return RawConfig{}, nil, nil, err
			}
			merged = merged.merge(incRaw)
			for p, src := range incSources {
				mergedSources[p] = src
			}
			files = append(files, incFiles...)
		}
	}

	// This file overrides its includes.
	merged = merged.merge(raw)
	for p, src := range collectSources(&doc, canon) {
		mergedSources[p] = src
	}
	files = append(files, canon)

	return merged, mergedSources, files, nil
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, nil
	}
	return real, nil
}

func expandInclude(baseFile string, include string) ([]string, error) {
	path, err := resolvePathRelativeToFile(baseFile, include)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(path, ent.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func resolvePathRelativeToFile(baseFile string, include string) (string, error) {
	if include == "" {
		return "", fmt.Errorf("path is empty")
	}
	if include == "~" || strings.HasPrefix(include, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		include = filepath.Join(home, strings.TrimPrefix(include, "~"))
	}
	if filepath.IsAbs(include) {
		return include, nil
	}
	return filepath.Join(filepath.Dir(baseFile), include), nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func collectSources(doc *yaml.Node, file string) map[string]Source {
	out := make(map[string]Source)
	if doc == nil {
		return out
	}
	node := doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	collectSourcesRec(node, file, "", out)
	return out
}

func collectSourcesRec(node *yaml.Node, file string, prefix string, out map[string]Source) {
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		out[path] = Source{
			Kind:   SourceFile,
			File:   file,
			Line:   val.Line,
			Column: val.Column,
		}
		collectSourcesRec(val, file, path, out)
	}
}

func attachSourceContext(err error, sources map[string]Source) error {
	verr, ok := err.(*ValidationError)
	if !ok || verr == nil {
		return err
	}
	if verr.Path == "" {
		return err
	}
	if src, ok := sources[verr.Path]; ok {
		verr.Source = src
	}
	return verr
}
