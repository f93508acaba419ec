package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"driverdesk/internal/dashboard"
	"driverdesk/internal/onboarding/gate"
	"driverdesk/pkg/domain"
)

var moveConfirm bool

var moveCmd = &cobra.Command{
	Use:   "move <tracker-id> <company-id>",
	Short: "Move a tracker to another company",
	Args:  cobra.ExactArgs(2),
	RunE:  runMove,
}

func init() {
	moveCmd.Flags().BoolVar(&moveConfirm, "confirm", false, "Confirm the company change")
}

func runMove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, err := domain.ParseTrackerID(args[0])
	if err != nil {
		return err
	}
	companyID, err := domain.ParseCompanyID(args[1])
	if err != nil {
		return err
	}

	editor, err := dashboard.Open(ctx, recordAPI, id, gate.SectionPrequalifications,
		dashboard.WithEditMode(gate.EditMode{Enabled: true}),
		dashboard.WithLogger(log),
	)
	if err != nil {
		return err
	}
	if err := editor.ChangeCompany(ctx, companyID, moveConfirm); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Tracker %s now belongs to company %s\n", id, editor.Tracker().CompanyID)
	return nil
}
