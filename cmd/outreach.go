package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thinkloop-ai/procure-cli/internal/campaign"
	"github.com/thinkloop-ai/procure-cli/internal/model"
	"github.com/thinkloop-ai/procure-cli/internal/store"
)

var outreachCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Contact ranked suppliers by email and SMS",
	Long: "Consolidates and ranks the suppliers in a snapshot, then contacts the top matches. " +
		"Runs in rehearsal mode unless --live or outreach.live is set.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		snapshotPath, _ := cmd.Flags().GetString("snapshot")
		requestPath, _ := cmd.Flags().GetString("request")
		live, _ := cmd.Flags().GetBool("live")
		id, _ := cmd.Flags().GetString("id")
		noHistory, _ := cmd.Flags().GetBool("no-history")

		if live {
			cfg.Mailjet.Live = true
			cfg.Twilio.Live = true
		}

		in, err := campaign.LoadInput(snapshotPath, requestPath)
		if err != nil {
			return err
		}
		in.ID = id

		runner, err := buildRunner(cfg, nil, nil)
		if err != nil {
			return err
		}

		if !noHistory {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := ensureNewCampaign(ctx, st, in.ID); err != nil {
				return err
			}
			runner.Store = st
		}

		report, err := runner.Run(ctx, in)
		if report != nil {
			printSummary(os.Stdout, report)
		}
		if err != nil {
			zap.L().Error("outreach failed", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	outreachCmd.Flags().String("snapshot", "", "supplier snapshot JSON (raw harvest or ranked)")
	outreachCmd.Flags().String("request", "", "procurement request YAML/JSON (default: embedded in snapshot)")
	outreachCmd.Flags().Bool("live", false, "send real email and SMS")
	outreachCmd.Flags().String("id", "", "campaign ID (default: generated)")
	outreachCmd.Flags().Bool("no-history", false, "do not record the campaign in the store")
	_ = outreachCmd.MarkFlagRequired("snapshot")
	rootCmd.AddCommand(outreachCmd)
}

// ensureNewCampaign refuses an explicit id that is already recorded, so a
// rerun cannot replace an earlier campaign's history.
func ensureNewCampaign(ctx context.Context, st store.Store, id string) error {
	if id == "" {
		return nil
	}
	_, err := st.GetCampaign(ctx, id)
	switch {
	case err == nil:
		return eris.Wrapf(model.ErrInvalidInput, "campaign %s already exists", id)
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return eris.Wrapf(err, "check campaign %s", id)
	}
}

// printSummary writes the human-readable campaign summary to w.
func printSummary(w io.Writer, r *campaign.Report) {
	res := r.Result
	email, sms := res.Stats(model.ChannelEmail), res.Stats(model.ChannelSMS)

	mode := "LIVE"
	if res.Rehearsal {
		mode = "REHEARSAL"
	}
	_, _ = fmt.Fprintf(w, "Campaign %s (%s)\n", res.ID, mode)
	_, _ = fmt.Fprintf(w, "Suppliers: %d total, %d unique, %d contacted\n",
		res.TotalCandidates, res.UniqueCandidates, res.RankedCandidates)
	_, _ = fmt.Fprintf(w, "Email: %d/%d sent, %d failed\n", email.Sent, res.EligibleWithEmail, email.Failed)
	_, _ = fmt.Fprintf(w, "SMS:   %d/%d sent, %d failed\n", sms.Sent, res.EligibleWithPhone, sms.Failed)
	_, _ = fmt.Fprintf(w, "Elapsed: %s\n", res.Duration().Round(time.Millisecond))
	if res.Aborted {
		_, _ = fmt.Fprintf(w, "ABORTED: %s\n", res.AbortReason)
	}
	_, _ = fmt.Fprintf(w, "Results: %s\n", r.SnapshotPath)
}
