package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/nao1215/vitals/internal/fsutil"
	"github.com/nao1215/vitals/internal/model"
)

// envFileMode keeps the env file readable by its owner only; it holds the
// API key.
const envFileMode os.FileMode = 0600

// Environment is the merged view of the env file and the process
// environment. Process variables win, matching godotenv.Load, which never
// overrides variables that are already set.
type Environment struct {
	file    map[string]string
	process map[string]string
}

// LoadEnvironment reads the env file at path and snapshots the process
// environment. A missing env file is not an error.
func LoadEnvironment(path string) (*Environment, error) {
	file, err := LoadEnvFile(path)
	if err != nil {
		return nil, err
	}
	return NewEnvironment(file, os.Environ()), nil
}

// NewEnvironment builds an Environment from env file values and
// "KEY=value" process entries.
func NewEnvironment(file map[string]string, environ []string) *Environment {
	process := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		process[key] = value
	}
	if file == nil {
		file = map[string]string{}
	}
	return &Environment{file: file, process: process}
}

// LoadEnvFile parses the env file at path.
// A missing file yields an empty map.
func LoadEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return values, nil
}

// Get returns the value of key, preferring the process environment.
func (e *Environment) Get(key string) string {
	if v, ok := e.process[key]; ok {
		return v
	}
	return e.file[key]
}

// Websites returns every PAGEVITALS_WEBSITE_<NAME> mapping sorted by name.
// Entries with an empty ID are skipped.
func (e *Environment) Websites() []model.ConfiguredWebsite {
	merged := make(map[string]string)
	for k, v := range e.file {
		merged[k] = v
	}
	for k, v := range e.process {
		merged[k] = v
	}

	var websites []model.ConfiguredWebsite
	for key, value := range merged {
		name, ok := strings.CutPrefix(key, model.WebsiteEnvPrefix)
		if !ok || name == "" {
			continue
		}
		id := strings.TrimSpace(value)
		if id == "" {
			continue
		}
		websites = append(websites, model.ConfiguredWebsite{Name: name, ID: model.ID(id)})
	}

	sort.Slice(websites, func(i, j int) bool {
		return websites[i].Name < websites[j].Name
	})
	return websites
}

// WebsiteEntry is a PAGEVITALS_WEBSITE_<Name>=<ID> assignment.
type WebsiteEntry struct {
	Name string
	ID   string
}

// Key returns the environment variable name of the entry.
func (w WebsiteEntry) Key() string {
	return model.WebsiteEnvPrefix + w.Name
}

// UpsertResult reports what UpsertWebsites changed.
type UpsertResult struct {
	Added     int
	Updated   int
	Unchanged int
	Removed   int
}

// UpsertWebsites writes the given website mappings into the env file.
//
// The file is rewritten entry by entry: comments, blank lines and unrelated
// variables, including quoted values spanning several lines, are preserved
// in place. An existing entry for the same name is
// replaced where it stands, and later duplicates of it are dropped, so
// repeated runs never duplicate a name. When keepStale is false, website
// entries that are not in entries are removed. New entries are appended in
// the given order. The file is written with owner-only permissions.
func UpsertWebsites(path string, entries []WebsiteEntry, keepStale bool) (UpsertResult, error) {
	var result UpsertResult

	existing, err := os.ReadFile(path) //nolint:gosec // User-provided env file path is intentional
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return result, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	wanted := make(map[string]string, len(entries))
	for _, e := range entries {
		wanted[e.Key()] = e.ID
	}
	written := make(map[string]bool, len(entries))

	lines, err := envLines(existing)
	if err != nil {
		return result, fmt.Errorf("failed to scan env file %s: %w", path, err)
	}

	var out []string
	for _, line := range lines {
		key := envLineKey(line)
		if !strings.HasPrefix(key, model.WebsiteEnvPrefix) {
			out = append(out, line)
			continue
		}

		id, ok := wanted[key]
		switch {
		case ok && written[key]:
			// duplicate definition of a key already emitted
		case ok:
			if envLineValue(line) == id {
				result.Unchanged++
			} else {
				result.Updated++
			}
			out = append(out, formatEnvLine(key, id))
			written[key] = true
		case keepStale:
			out = append(out, line)
		default:
			result.Removed++
		}
	}

	for _, e := range entries {
		if written[e.Key()] {
			continue
		}
		out = append(out, formatEnvLine(e.Key(), e.ID))
		written[e.Key()] = true
		result.Added++
	}

	content := strings.Join(out, "\n")
	if content != "" {
		content += "\n"
	}
	if err := fsutil.WriteFileAtomic(path, []byte(content), envFileMode); err != nil {
		return result, fmt.Errorf("failed to write env file %s: %w", path, err)
	}
	return result, nil
}

// envLines splits env file content into entries. A quoted value that spans
// several lines stays one entry, so its inner lines are never taken for
// variable definitions.
func envLines(data []byte) ([]string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), max(len(data)+1, bufio.MaxScanTokenSize))

	var (
		lines   []string
		pending []string
		quote   byte
	)
	for scanner.Scan() {
		line := scanner.Text()
		if quote != 0 {
			pending = append(pending, line)
			if closingQuote(line, quote) >= 0 {
				lines = append(lines, strings.Join(pending, "\n"))
				pending, quote = nil, 0
			}
			continue
		}
		if q := openQuote(line); q != 0 {
			pending, quote = []string{line}, q
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	// an unterminated value is kept verbatim
	if pending != nil {
		lines = append(lines, strings.Join(pending, "\n"))
	}
	return lines, nil
}

// openQuote returns the quote character of a value that starts on line but
// does not end there, or 0.
func openQuote(line string) byte {
	if envLineKey(line) == "" {
		return 0
	}
	_, value, _ := strings.Cut(line, "=")
	value = strings.TrimLeft(value, " \t")
	if value == "" || (value[0] != '"' && value[0] != '\'') {
		return 0
	}
	if closingQuote(value[1:], value[0]) >= 0 {
		return 0
	}
	return value[0]
}

// closingQuote returns the index of the first quote in s that is not escaped
// with a backslash, or -1.
func closingQuote(s string, quote byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == quote && (i == 0 || s[i-1] != '\\') {
			return i
		}
	}
	return -1
}

// envLineKey returns the variable name defined on a .env line, or "" for
// blank lines and comments.
func envLineKey(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	trimmed = strings.TrimPrefix(trimmed, "export ")
	key, _, ok := strings.Cut(trimmed, "=")
	if !ok {
		return ""
	}
	return strings.TrimSpace(key)
}

// envLineValue returns the parsed value of a single .env line.
func envLineValue(line string) string {
	values, err := godotenv.Unmarshal(line)
	if err != nil {
		return ""
	}
	return values[envLineKey(line)]
}

// formatEnvLine renders KEY=value with godotenv's quoting rules.
func formatEnvLine(key, value string) string {
	line, err := godotenv.Marshal(map[string]string{key: value})
	if err != nil {
		return key + "=" + value
	}
	return line
}
