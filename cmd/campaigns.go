package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/thinkloop-ai/procure-cli/internal/store"
)

var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "Inspect outreach campaign history",
}

// -- campaigns list --

var campaignsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded campaigns",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		mode, _ := cmd.Flags().GetString("mode")
		limit, _ := cmd.Flags().GetInt("limit")

		filter, err := campaignFilter(mode, limit, 0)
		if err != nil {
			return err
		}

		records, err := st.ListCampaigns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "campaigns list")
		}

		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "No campaigns found.")
			return nil
		}

		formatCampaignsList(os.Stdout, records)
		return nil
	},
}

// -- campaigns show --

var campaignsShowCmd = &cobra.Command{
	Use:   "show <campaign-id>",
	Short: "Show the full result of a campaign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rec, err := st.GetCampaign(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "campaigns show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	campaignsListCmd.Flags().String("mode", "", "filter by mode (rehearsal, live)")
	campaignsListCmd.Flags().Int("limit", 50, "max number of campaigns to display")

	campaignsCmd.AddCommand(campaignsListCmd)
	campaignsCmd.AddCommand(campaignsShowCmd)
	rootCmd.AddCommand(campaignsCmd)
}

// campaignFilter translates user-facing filter values into a store filter.
func campaignFilter(mode string, limit, offset int) (store.CampaignFilter, error) {
	filter := store.CampaignFilter{Limit: limit, Offset: offset}
	switch mode {
	case "":
	case "rehearsal":
		on := true
		filter.Rehearsal = &on
	case "live":
		off := false
		filter.Rehearsal = &off
	default:
		return filter, eris.Errorf("unknown mode %q (want rehearsal or live)", mode)
	}
	return filter, nil
}

// formatCampaignsList writes a tabular list of campaigns to w.
func formatCampaignsList(out io.Writer, records []store.CampaignRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPRODUCT\tMODE\tRANKED\tEMAIL\tSMS\tSTARTED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t-------\t----\t------\t-----\t---\t-------\t--------")

	for _, r := range records {
		mode := "live"
		if r.Rehearsal {
			mode = "rehearsal"
		}
		if r.Aborted {
			mode += "!"
		}

		product := r.Product
		if len(product) > 30 {
			product = product[:27] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d/%d\t%d/%d\t%s\t%s\n",
			truncateID(r.ID),
			product,
			mode,
			r.RankedCandidates,
			r.EmailSent, r.EmailSent+r.EmailFailed,
			r.SMSSent, r.SMSSent+r.SMSFailed,
			r.StartedAt.Format("2006-01-02 15:04"),
			r.EndedAt.Sub(r.StartedAt).Round(time.Second).String(),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
