package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thinkloop-ai/procure-cli/internal/model"
	"github.com/thinkloop-ai/procure-cli/internal/supplier"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Consolidate and rank a supplier snapshot without contacting anyone",
	RunE: func(cmd *cobra.Command, _ []string) error {
		snapshotPath, _ := cmd.Flags().GetString("snapshot")
		requestPath, _ := cmd.Flags().GetString("request")
		outDir, _ := cmd.Flags().GetString("out")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")

		path, ranked, err := rankSnapshot(snapshotPath, requestPath, outDir, xlsxPath, time.Now())
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Ranked %d suppliers: %s\n", len(ranked), path)
		return nil
	},
}

func init() {
	rankCmd.Flags().String("snapshot", "", "supplier snapshot JSON")
	rankCmd.Flags().String("request", "", "procurement request YAML/JSON (default: embedded in snapshot)")
	rankCmd.Flags().String("out", ".", "directory for the ranked snapshot")
	rankCmd.Flags().String("xlsx", "", "also write the ranked list to this spreadsheet")
	_ = rankCmd.MarkFlagRequired("snapshot")
	rootCmd.AddCommand(rankCmd)
}

// rankSnapshot ranks the suppliers in snapshotPath and writes a
// suppliers_<timestamp>.json snapshot into outDir. A request is optional
// here; without one no location preference applies.
func rankSnapshot(snapshotPath, requestPath, outDir, xlsxPath string, now time.Time) (string, []model.Candidate, error) {
	snap, err := supplier.LoadSnapshot(snapshotPath)
	if err != nil {
		return "", nil, err
	}

	req := snap.Requirements
	if requestPath != "" {
		r, err := model.LoadRequest(requestPath)
		if err != nil {
			return "", nil, err
		}
		req = &r
	}

	var pref model.ProcurementRequest
	if req != nil {
		pref = req.Trimmed()
	}

	ranked, unique := buildRanker(cfg).Consolidate(snap.Suppliers, pref, cfg.Ranking.CountryCode)
	zap.L().Info("rank: suppliers consolidated",
		zap.Int("input", len(snap.Suppliers)),
		zap.Int("unique", unique),
		zap.Int("ranked", len(ranked)),
	)

	path, err := supplier.WriteRanked(outDir, ranked, req, now)
	if err != nil {
		return "", nil, err
	}

	if xlsxPath != "" {
		if err := supplier.ExportXLSX(xlsxPath, ranked); err != nil {
			return "", nil, err
		}
		zap.L().Info("rank: spreadsheet written", zap.String("path", xlsxPath))
	}

	return path, ranked, nil
}
