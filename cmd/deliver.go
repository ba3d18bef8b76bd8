package cmd

import (
	"fmt"

	"github.com/bnema/wallet-bridge/internal/adapters/delivery"
	"github.com/spf13/cobra"
)

func newDeliverCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deliver <callback-url>",
		Short: "Hand a wallet callback link to the waiting wb process",
		Long:  "Register this command as the handler for the callback scheme. It forwards {scheme}://wallet-connection?requestId=...&data=... links to the delivery server of the wb process that is waiting on the browser.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := delivery.ParseCallbackURL(args[0])
			if err != nil {
				return err
			}

			if err := delivery.Forward(cmd.Context(), app.httpClient, app.deliveryURL(), d); err != nil {
				return fmt.Errorf("deliver %s: %w", d.RequestID, err)
			}

			app.logger.Debug().Str("request_id", d.RequestID).Msg("delivery forwarded")
			return nil
		},
	}
}
