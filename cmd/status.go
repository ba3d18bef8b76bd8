package cmd

import (
	"encoding/json"
	"fmt"

	statusadapter "github.com/bnema/wallet-bridge/internal/adapters/render/status"
	"github.com/bnema/wallet-bridge/internal/application"
	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	var (
		browserID     string
		asJSON        bool
		maxAccounts   int
		connectedOnly bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show wallet connection status per browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			statuses, err := loadStatuses(cmd, app.service, browserID)
			if err != nil {
				return err
			}

			return writeStatusesOutput(cmd, app, statuses, statusadapter.RenderOptions{MaxAccounts: maxAccounts, ConnectedOnly: connectedOnly}, asJSON)
		},
	}

	cmd.Flags().StringVarP(&browserID, "browser", "b", "", "Only show this browser")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print statuses as JSON")
	cmd.Flags().IntVar(&maxAccounts, "max-accounts", 0, "Limit accounts listed per browser (0 lists all)")
	cmd.Flags().BoolVar(&connectedOnly, "connected", false, "Only show browsers with an authorized account")

	return cmd
}

func writeStatusesOutput(cmd *cobra.Command, app *app, statuses []application.Status, opts statusadapter.RenderOptions, asJSON bool) error {
	if asJSON {
		if opts.ConnectedOnly {
			statuses = connectedStatuses(statuses)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	}

	rendered, err := app.statusRenderer(statuses, opts)
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func loadStatuses(cmd *cobra.Command, svc *application.Service, browserID string) ([]application.Status, error) {
	if browserID == "" {
		return svc.GetStatusAll(cmd.Context())
	}

	status, err := svc.GetStatus(cmd.Context(), domain.BrowserID(browserID))
	if err != nil {
		return nil, err
	}

	return []application.Status{status}, nil
}

func connectedStatuses(statuses []application.Status) []application.Status {
	connected := make([]application.Status, 0, len(statuses))
	for _, status := range statuses {
		if status.Connected() {
			connected = append(connected, status)
		}
	}
	return connected
}
