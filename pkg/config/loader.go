package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound = errors.New("configuration file not found")
	ErrEmptyFile    = errors.New("configuration file is empty")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
	ErrNoFiles      = errors.New("no configuration files matched")
)

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars expands ${VAR_NAME} and ${VAR_NAME:-default}. Unset or empty
// variables without a default expand to "".
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		sub := envVarPattern.FindStringSubmatch(match)
		if val := os.Getenv(sub[1]); val != "" {
			return val
		}
		return sub[2]
	})
}

// Parse decodes a mock file after environment expansion. Unknown fields are
// rejected.
func Parse(data []byte) (*File, error) {
	expanded := ExpandEnvVars(string(data))

	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
	}
	return &f, nil
}

// LoadFile reads and parses one mock file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Source is a parsed file together with where it came from.
type Source struct {
	Path string
	File *File
}

// Dir returns the directory relative body files are resolved against.
func (s Source) Dir() string {
	return filepath.Dir(s.Path)
}

// Load expands each pattern relative to baseDir and parses every match.
// Patterns without glob characters must name an existing file. Glob matches
// are sorted; patterns are processed in the order given and a file matched
// twice is loaded once.
func Load(patterns []string, baseDir string) ([]Source, error) {
	var (
		sources []Source
		seen    = make(map[string]struct{})
	)
	for _, pattern := range patterns {
		paths, err := expand(ResolvePath(baseDir, pattern))
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}

			f, err := LoadFile(p)
			if err != nil {
				return nil, err
			}
			sources = append(sources, Source{Path: p, File: f})
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, strings.Join(patterns, ", "))
	}
	return sources, nil
}

func expand(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		return []string{pattern}, nil
	}
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expanding glob %q: %w", pattern, err)
	}
	slices.Sort(matches)
	return matches, nil
}

// ResolvePath joins a relative path onto baseDir.
func ResolvePath(baseDir, path string) string {
	if baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
