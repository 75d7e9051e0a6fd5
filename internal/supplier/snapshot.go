// Package supplier consolidates and ranks harvested supplier candidates.
package supplier

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/thinkloop-ai/procure-cli/internal/model"
)

// Snapshot is the candidate document exchanged with the harvester.
type Snapshot struct {
	Timestamp      string                    `json:"timestamp,omitempty"`
	TotalSuppliers int                       `json:"total_suppliers"`
	Suppliers      []model.Candidate         `json:"suppliers"`
	Requirements   *model.ProcurementRequest `json:"procurement_requirements,omitempty"`
}

// ReadSnapshot decodes a candidate snapshot. The "suppliers" key is
// mandatory; its absence is an input-validation failure.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrapf(model.ErrInvalidInput, "supplier: read snapshot: %v", err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, eris.Wrapf(model.ErrInvalidInput, "supplier: parse snapshot: %v", err)
	}
	raw, ok := probe["suppliers"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, eris.Wrap(model.ErrInvalidInput, "supplier: snapshot has no \"suppliers\" key")
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, eris.Wrapf(model.ErrInvalidInput, "supplier: decode snapshot: %v", err)
	}
	return &snap, nil
}

// LoadSnapshot reads a candidate snapshot from path.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(model.ErrInvalidInput, "supplier: open %s: %v", path, err)
	}
	defer f.Close() //nolint:errcheck
	return ReadSnapshot(f)
}
