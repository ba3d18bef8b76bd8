package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bnema/wallet-bridge/internal/application"
	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/spf13/cobra"
)

func newRequestCmd(app *app) *cobra.Command {
	var browserID string

	cmd := &cobra.Command{
		Use:   "request <method> [params-json]",
		Short: "Send a provider request through the browser wallet",
		Long:  "Send a provider request through the browser wallet. Params are a JSON array, for example '[\"0xabc\",\"latest\"]'. The raw JSON result is printed.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := application.RequestCommand{Browser: domain.BrowserID(browserID), Method: args[0]}
			if len(args) == 2 {
				params, err := parseParams(args[1])
				if err != nil {
					return err
				}
				command.Params = params
			}

			var result json.RawMessage
			err := waitForBrowser(cmd.Context(), cmd.ErrOrStderr(), fmt.Sprintf("Waiting for %s to answer %s...", browserID, command.Method), app.pendingFor(cmd.Context(), browserID), func(ctx context.Context) error {
				var requestErr error
				result, requestErr = app.service.Request(ctx, command)
				return requestErr
			})
			if err != nil {
				return err
			}

			var out bytes.Buffer
			if err := json.Indent(&out, result, "", "  "); err != nil {
				out.Reset()
				out.Write(result)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out.String())
			return err
		},
	}

	addBrowserFlag(cmd, app, &browserID)

	return cmd
}

// parseParams keeps numbers as json.Number so integers beyond float64
// precision reach the wallet unchanged.
func parseParams(raw string) ([]any, error) {
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()

	var params []any
	if err := decoder.Decode(&params); err != nil {
		return nil, fmt.Errorf("params must be a JSON array: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("params must be a JSON array: unexpected data after array")
	}
	return params, nil
}
