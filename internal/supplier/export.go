package supplier

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/thinkloop-ai/procure-cli/internal/model"
	"github.com/thinkloop-ai/procure-cli/internal/snapshot"
)

// WriteRanked persists a ranked list as a suppliers_<timestamp>.json
// snapshot in dir and returns its path.
func WriteRanked(dir string, ranked []model.Candidate, req *model.ProcurementRequest, now time.Time) (string, error) {
	snap := Snapshot{
		Timestamp:      now.Format(time.RFC3339),
		TotalSuppliers: len(ranked),
		Suppliers:      ranked,
		Requirements:   req,
	}
	path, err := snapshot.WriteJSON(dir, "suppliers", now, snap)
	if err != nil {
		return "", eris.Wrap(err, "supplier: write ranked snapshot")
	}
	return path, nil
}

var xlsxHeader = []string{
	"Rank", "Company", "Contact", "Phone", "Email", "Location",
	"Rating", "Response Rate", "Verification", "Years", "Score", "Source",
}

// ExportXLSX writes the ranked list to a single-sheet workbook.
func ExportXLSX(path string, ranked []model.Candidate) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Suppliers")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range xlsxHeader {
		header.AddCell().SetString(h)
	}

	for i, c := range ranked {
		row := sheet.AddRow()
		row.AddCell().SetInt(i + 1)
		row.AddCell().SetString(c.CompanyName)
		row.AddCell().SetString(c.ContactPerson)
		row.AddCell().SetString(c.Phone)
		row.AddCell().SetString(c.Email)
		row.AddCell().SetString(c.Location)
		row.AddCell().SetFloat(c.Rating)
		row.AddCell().SetFloat(c.ResponseRate)
		row.AddCell().SetString(string(c.VerificationStatus))
		years := ""
		if c.YearsInBusiness != nil {
			years = strconv.Itoa(*c.YearsInBusiness)
		}
		row.AddCell().SetString(years)
		row.AddCell().SetFloat(c.Score)
		row.AddCell().SetString(strings.TrimSpace(c.SourceURL))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}
