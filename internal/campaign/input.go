package campaign

import (
	"github.com/rotisserie/eris"

	"github.com/thinkloop-ai/procure-cli/internal/model"
	"github.com/thinkloop-ai/procure-cli/internal/supplier"
)

// LoadInput reads a candidate snapshot and the procurement request. When
// requestPath is empty the request embedded in the snapshot is used.
func LoadInput(snapshotPath, requestPath string) (Input, error) {
	snap, err := supplier.LoadSnapshot(snapshotPath)
	if err != nil {
		return Input{}, err
	}

	var req model.ProcurementRequest
	switch {
	case requestPath != "":
		req, err = model.LoadRequest(requestPath)
		if err != nil {
			return Input{}, err
		}
	case snap.Requirements != nil:
		req = *snap.Requirements
	default:
		return Input{}, eris.Wrap(model.ErrInvalidInput,
			"campaign: no request file given and snapshot has no procurement_requirements")
	}

	return Input{Request: req, Candidates: snap.Suppliers}, nil
}
