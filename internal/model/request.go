package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ProcurementRequest is the structured output of the intake conversation.
type ProcurementRequest struct {
	ProductSpec              string `json:"product_types" yaml:"product_types"`
	Quantity                 string `json:"quantity" yaml:"quantity"`
	DeliveryTimeline         string `json:"delivery_timeline" yaml:"delivery_timeline"`
	SourceLocationPreference string `json:"procurement_source_location" yaml:"procurement_source_location"`
	DeliveryLocation         string `json:"delivery_location" yaml:"delivery_location"`
	QualityFilters           string `json:"quality_certification_filters" yaml:"quality_certification_filters"`
}

// Validate checks the fields outreach content cannot be rendered without.
func (r ProcurementRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.ProductSpec) == "" {
		missing = append(missing, "product_types")
	}
	if strings.TrimSpace(r.Quantity) == "" {
		missing = append(missing, "quantity")
	}
	if strings.TrimSpace(r.DeliveryTimeline) == "" {
		missing = append(missing, "delivery_timeline")
	}
	if strings.TrimSpace(r.DeliveryLocation) == "" {
		missing = append(missing, "delivery_location")
	}
	if len(missing) > 0 {
		return eris.Wrapf(ErrInvalidInput, "request: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (r ProcurementRequest) Trimmed() ProcurementRequest {
	return ProcurementRequest{
		ProductSpec:              strings.TrimSpace(r.ProductSpec),
		Quantity:                 strings.TrimSpace(r.Quantity),
		DeliveryTimeline:         strings.TrimSpace(r.DeliveryTimeline),
		SourceLocationPreference: strings.TrimSpace(r.SourceLocationPreference),
		DeliveryLocation:         strings.TrimSpace(r.DeliveryLocation),
		QualityFilters:           strings.TrimSpace(r.QualityFilters),
	}
}

// LoadRequest reads a procurement request from a YAML or JSON file and
// validates it.
func LoadRequest(path string) (ProcurementRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProcurementRequest{}, eris.Wrapf(ErrInvalidInput, "request: read %s: %v", path, err)
	}

	var req ProcurementRequest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &req)
	default:
		err = yaml.Unmarshal(data, &req)
	}
	if err != nil {
		return ProcurementRequest{}, eris.Wrapf(ErrInvalidInput, "request: parse %s: %v", path, err)
	}

	req = req.Trimmed()
	if err := req.Validate(); err != nil {
		return ProcurementRequest{}, err
	}
	return req, nil
}
