package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/vitals/internal/model"
	"github.com/nao1215/vitals/internal/pagevitals/pagevitalstest"
)

// testWorkspace is an isolated directory with an env file, a config file
// and output directories for one CLI invocation or a series of them.
type testWorkspace struct {
	dir     string
	envFile string
	config  string
	csvDir  string
	dbDir   string
	server  *pagevitalstest.Server
}

// newWorkspace creates a workspace whose env file holds envLines and whose
// config file points at server with a fast request budget.
func newWorkspace(t *testing.T, server *pagevitalstest.Server, envLines ...string) *testWorkspace {
	t.Helper()

	dir := t.TempDir()
	ws := &testWorkspace{
		dir:     dir,
		envFile: filepath.Join(dir, ".env"),
		config:  filepath.Join(dir, "vitals.yaml"),
		csvDir:  filepath.Join(dir, "csv"),
		dbDir:   filepath.Join(dir, "data"),
		server:  server,
	}

	cfg := "timeout: 5s\nrateLimit:\n  requests: 1000\n  window: 1s\nretry:\n  after: 10ms\n"
	if err := os.WriteFile(ws.config, []byte(cfg), 0600); err != nil {
		t.Fatal(err)
	}
	if len(envLines) > 0 {
		ws.writeEnv(t, envLines...)
	}
	return ws
}

func (ws *testWorkspace) writeEnv(t *testing.T, lines ...string) {
	t.Helper()
	if err := os.WriteFile(ws.envFile, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
}

func (ws *testWorkspace) readEnv(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(ws.envFile)
	if err != nil {
		t.Fatalf("failed to read env file: %v", err)
	}
	return string(data)
}

// run executes vitals with the workspace's global flags followed by args.
func (ws *testWorkspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	global := []string{"--env-file", ws.envFile, "--config", ws.config}
	if ws.server != nil {
		global = append(global, "--base-url", ws.server.URL)
	}

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, global...))

	err := cmd.Execute()
	if strings.Contains(stdout.String()+stderr.String(), pagevitalstest.APIKey) {
		t.Errorf("output leaked the API key:\n%s\n%s", stdout.String(), stderr.String())
	}
	if err != nil && strings.Contains(err.Error(), pagevitalstest.APIKey) {
		t.Errorf("error leaked the API key: %v", err)
	}
	return stdout.String(), err
}

// csvFiles returns the CSV files in the workspace's CSV directory.
func (ws *testWorkspace) csvFiles(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(ws.csvDir, "*.csv"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

// apiKeyLine is the env file line holding the fake server's key.
const apiKeyLine = "PAGEVITALS_API_KEY=" + pagevitalstest.APIKey

func scored(perf, a11y, bp, seo float64) *model.LighthouseScore {
	return &model.LighthouseScore{
		Performance:   model.Float(perf),
		Accessibility: model.Float(a11y),
		BestPractices: model.Float(bp),
		SEO:           model.Float(seo),
	}
}

// countLines returns the number of non-empty lines of a file.
func countLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test file
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
