package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ExportBundle wraps one generated artifact on disk.
type ExportBundle struct {
	SessionID   string    `json:"session_id"`
	Name        string    `json:"name"`
	GeneratedAt time.Time `json:"generated_at"`
	Payload     any       `json:"payload"`
}

func mkSessionDir(outputsRoot string, now time.Time) (string, string, error) {
	sid := "session_" + now.Format("20060102-150405") + "_" + uuid.NewString()[:8]
	dir := filepath.Join(outputsRoot, sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", errors.Wrap(err, "export mkdir")
	}
	return sid, dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "export create")
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return errors.Wrapf(enc.Encode(v), "export encode %s", path)
}

// Export writes v to <outputsRoot>/<session_id>/<name>.json and returns the path.
func Export(outputsRoot, name string, v any) (string, error) {
	now := time.Now()
	sid, dir, err := mkSessionDir(outputsRoot, now)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".json")
	bundle := ExportBundle{SessionID: sid, Name: name, GeneratedAt: now, Payload: v}
	if err := writeJSON(path, bundle); err != nil {
		return "", err
	}
	return path, nil
}
