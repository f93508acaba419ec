package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"driverdesk/internal/onboarding/gate"
	"driverdesk/internal/onboarding/notice"
	"driverdesk/internal/onboarding/progress"
	"driverdesk/internal/tracker/models"
	"driverdesk/pkg/domain"
)

var showCmd = &cobra.Command{
	Use:   "show <tracker-id>",
	Short: "Show a tracker's step position, gates and notices",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := domain.ParseTrackerID(args[0])
	if err != nil {
		return err
	}
	t, err := recordAPI.FetchTracker(cmd.Context(), id)
	if err != nil {
		return err
	}
	p := progress.Derive(t, notice.New(notice.DefaultLicenseWarning), time.Now())

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"tracker": t, "progress": p})
	}
	printProgress(out, t, p)
	return nil
}

func printProgress(w io.Writer, t *models.Tracker, p progress.Progress) {
	fmt.Fprintf(w, "Tracker  %s (company %s, version %d)\n", t.ID, t.CompanyID, t.Version)
	status := string(t.Status.CurrentStep)
	if t.Status.Completed {
		status = "COMPLETED"
	}
	fmt.Fprintf(w, "Step     %s (%d of %d)\n", status, p.MacroStep, t.Flow().Len())
	fmt.Fprintf(w, "Progress %d%% overall, %d%% of application\n", p.OverallPercent, p.ApplicationPercent)

	fmt.Fprintln(w, "\nSections")
	for _, section := range gate.Sections() {
		state, ok := p.Gates[section]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %-24s %s\n", section, state)
	}

	if len(p.Notices) == 0 {
		return
	}
	fmt.Fprintln(w, "\nNotices")
	for _, n := range p.Notices {
		fmt.Fprintf(w, "  [%s] %s\n", n.Severity, n.Message)
	}
}
