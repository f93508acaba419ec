package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"driverdesk/internal/dashboard"
	"driverdesk/internal/drafts"
	"driverdesk/internal/onboarding/gate"
	"driverdesk/internal/onboarding/staging"
	"driverdesk/internal/platform/config"
	platformredis "driverdesk/internal/platform/redis"
	"driverdesk/pkg/domain"
	dErrors "driverdesk/pkg/domain-errors"
)

var (
	editAssignments []string
	editOptimistic  bool
	editDraftOnly   bool
	editDiscard     bool
)

var editCmd = &cobra.Command{
	Use:   "edit <tracker-id> <section>",
	Short: "Stage and commit changes to one section",
	Long: `Stage field values on a tracker section and commit them.

Values are parsed as JSON when they parse, otherwise taken as strings.
With REDIS_URL and --admin set, unsaved edits are kept as a draft that the
dashboard restores.

Examples:
  trackerctl edit 6f1c... licenses --set class=A --set licenseNumber=D123
  trackerctl edit 6f1c... accidents-convictions --set 'accidents=[]'
  trackerctl edit 6f1c... licenses --set class=B --draft   # save without committing
  trackerctl edit 6f1c... licenses --discard               # drop a saved draft`,
	Args: cobra.ExactArgs(2),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringArrayVar(&editAssignments, "set", nil, "field=value to stage (repeatable)")
	editCmd.Flags().BoolVar(&editOptimistic, "if-match", false, "Fail with a conflict if the tracker changed since it was loaded")
	editCmd.Flags().BoolVar(&editDraftOnly, "draft", false, "Save staged values as a draft without committing")
	editCmd.Flags().BoolVar(&editDiscard, "discard", false, "Discard staged values and any saved draft")
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := domain.ParseTrackerID(args[0])
	if err != nil {
		return err
	}
	section := gate.Section(args[1])

	changes, err := parseAssignments(editAssignments)
	if err != nil {
		return err
	}

	opts := []dashboard.Option{
		dashboard.WithEditMode(gate.EditMode{Enabled: true}),
		dashboard.WithLogger(log),
	}
	if editOptimistic {
		opts = append(opts, dashboard.WithOptimisticConcurrency())
	}
	if adminID != "" {
		rc, err := platformredis.New(ctx, config.FromEnv().Redis)
		if err != nil {
			return err
		}
		if rc != nil {
			defer rc.Close()
			opts = append(opts, dashboard.WithDrafts(drafts.NewRedisStore(rc.Client, drafts.DefaultTTL), adminID))
		}
	}

	editor, err := dashboard.Open(ctx, recordAPI, id, section, opts...)
	if err != nil {
		return err
	}
	if editor.State() == dashboard.StateStepNotReached {
		return dErrors.Newf(dErrors.CodeUnauthorized, "driver has not reached %s yet", section)
	}

	out := cmd.OutOrStdout()
	if editDiscard {
		editor.Discard(ctx)
		fmt.Fprintln(out, "Discarded staged changes")
		return nil
	}
	if len(changes) > 0 {
		if err := editor.Stage(ctx, changes); err != nil {
			return err
		}
	}
	if editDraftOnly {
		fmt.Fprintf(out, "Staged %s\n", strings.Join(editor.Changes(), ", "))
		return nil
	}

	committed, err := editor.Commit(ctx)
	if err != nil {
		return err
	}
	if !committed {
		fmt.Fprintln(out, "Nothing to commit")
		return nil
	}
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(editor.Merged())
	}
	fmt.Fprintf(out, "Committed %s (version %d)\n", section, editor.Tracker().Version)
	return nil
}

// parseAssignments turns field=value pairs into staged fields.
func parseAssignments(pairs []string) (staging.Fields, error) {
	changes := staging.Fields{}
	for _, pair := range pairs {
		field, raw, ok := strings.Cut(pair, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "invalid assignment %q, want field=value", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		changes[field] = v
	}
	return changes, nil
}
