// Package snapshot writes timestamp-named JSON documents that are never
// overwritten.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
)

// TimeLayout is the timestamp format embedded in snapshot file names.
const TimeLayout = "20060102_150405"

// maxCollisions bounds the suffix search when several snapshots share a second.
const maxCollisions = 1000

// Path returns the base name for a snapshot taken at ts, without collision suffix.
func Path(dir, prefix string, ts time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.json", prefix, ts.Format(TimeLayout)))
}

// WriteJSON encodes v (indented) into dir/<prefix>_<timestamp>.json and
// returns the path. An existing file is never replaced: a numeric suffix is
// appended until a free name is found.
func WriteJSON(dir, prefix string, ts time.Time, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "snapshot: marshal")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "snapshot: create dir %s", dir)
	}

	base := fmt.Sprintf("%s_%s", prefix, ts.Format(TimeLayout))
	for i := 0; i < maxCollisions; i++ {
		name := base + ".json"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.json", base, i)
		}
		path := filepath.Join(dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", eris.Wrapf(err, "snapshot: create %s", path)
		}

		if _, err := f.Write(append(data, '\n')); err != nil {
			f.Close() //nolint:errcheck
			return "", eris.Wrapf(err, "snapshot: write %s", path)
		}
		if err := f.Close(); err != nil {
			return "", eris.Wrapf(err, "snapshot: close %s", path)
		}
		return path, nil
	}
	return "", eris.Errorf("snapshot: no free file name for %s in %s", base, dir)
}
