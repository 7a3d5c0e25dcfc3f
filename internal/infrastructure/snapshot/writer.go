package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// Writer stores each fetch run as a JSON file under dir.
type Writer struct {
	dir string
	now func() time.Time
}

var _ ports.SnapshotWriter = (*Writer)(nil)

// NewWriter returns a writer rooted at dir ("." when empty).
func NewWriter(dir string) *Writer {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	return &Writer{dir: dir, now: time.Now}
}

// Write saves snapshot as news_<SYMBOL>_<YYYYMMDD>_<unix>.json and returns the path.
func (w *Writer) Write(snapshot domain.Snapshot) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	now := w.now()
	name := fmt.Sprintf("news_%s_%s_%d.json", fileSymbol(snapshot.Symbol), now.Format("20060102"), now.Unix())
	path := filepath.Join(w.dir, name)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(snapshot); err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// Read loads a snapshot previously produced by Write.
func Read(path string) (domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return snapshot, nil
}

func fileSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "UNKNOWN"
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' {
			return '_'
		}
		return r
	}, symbol)
}
