package pagevitals

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/vitals/internal/model"
)

const dumpTimeLayout = "20060102_150405"

// dumpName identifies a dumped response: <kind>_response_<label>_<ts>.json.
type dumpName struct {
	kind  string
	label string
}

// Dumper writes API response bodies as pretty-printed JSON files.
// A failed dump is logged and never fails the request.
type Dumper struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewDumper returns a Dumper writing into dir.
func NewDumper(dir string, logger *slog.Logger) *Dumper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dumper{dir: dir, logger: logger, now: time.Now}
}

// Dump writes body to a new file and returns its path, or "" on failure.
func (d *Dumper) Dump(name dumpName, body []byte) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(d.dir, 0o750); err != nil {
		d.logger.Warn("failed to create response log directory", "dir", d.dir, "error", err)
		return ""
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(body)
	}
	pretty.WriteByte('\n')

	base := fmt.Sprintf("%s_response_%s_%s", name.kind, dumpLabel(name.label), d.now().Format(dumpTimeLayout))
	for n := 1; ; n++ {
		fileName := base + ".json"
		if n > 1 {
			fileName = fmt.Sprintf("%s_%d.json", base, n)
		}
		path := filepath.Join(d.dir, fileName)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // path is built from sanitized parts
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			d.logger.Warn("failed to create response log", "path", path, "error", err)
			return ""
		}
		_, werr := f.Write(pretty.Bytes())
		cerr := f.Close()
		if werr != nil || cerr != nil {
			d.logger.Warn("failed to write response log", "path", path, "error", errors.Join(werr, cerr))
			return ""
		}
		d.logger.Debug("API response logged", "path", path)
		return path
	}
}

// dumpLabel makes an identifier safe for use in a file name.
func dumpLabel(label string) string {
	safe := strings.ToLower(model.NormalizeEnvName(label))
	if safe == "" {
		return "unnamed"
	}
	return safe
}
