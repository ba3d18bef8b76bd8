package cmd

import (
	"context"
	"fmt"
	"strings"

	statusadapter "github.com/bnema/wallet-bridge/internal/adapters/render/status"
	"github.com/bnema/wallet-bridge/internal/application"
	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/spf13/cobra"
)

func addBrowserFlag(cmd *cobra.Command, app *app, target *string) {
	cmd.Flags().StringVarP(target, "browser", "b", app.config.GetString(keyDefaultBrowser), "Browser profile id")
}

func newConnectCmd(app *app) *cobra.Command {
	var (
		browserID string
		rawChain  string
		reconnect bool
	)

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect a browser wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			command := application.ConnectCommand{Browser: domain.BrowserID(browserID), Reconnect: reconnect}
			if rawChain != "" {
				chainID, err := domain.ParseChainID(rawChain)
				if err != nil {
					return err
				}
				command.ChainID = chainID
			}

			var state domain.ConnectionState
			err := waitForBrowser(cmd.Context(), cmd.ErrOrStderr(), fmt.Sprintf("Waiting for %s to connect...", browserID), app.pendingFor(cmd.Context(), browserID), func(ctx context.Context) error {
				var connectErr error
				state, connectErr = app.service.Connect(ctx, command)
				return connectErr
			})
			if err != nil {
				return err
			}

			return writeConnection(cmd, state)
		},
	}

	addBrowserFlag(cmd, app, &browserID)
	cmd.Flags().StringVar(&rawChain, "chain", "", "Chain id, decimal or 0x hex (default: cached chain or Ethereum)")
	cmd.Flags().BoolVar(&reconnect, "reconnect", false, "Only restore a cached connection; never open the browser")

	return cmd
}

func newDisconnectCmd(app *app) *cobra.Command {
	var browserID string

	cmd := &cobra.Command{
		Use:   "disconnect",
		Short: "Forget a browser wallet connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.service.Disconnect(cmd.Context(), domain.BrowserID(browserID)); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Disconnected %s\n", browserID)
			return err
		},
	}

	addBrowserFlag(cmd, app, &browserID)

	return cmd
}

func newSwitchChainCmd(app *app) *cobra.Command {
	var browserID string

	cmd := &cobra.Command{
		Use:   "switch-chain <chain-id>",
		Short: "Reconnect a browser wallet on another chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chainID, err := domain.ParseChainID(args[0])
			if err != nil {
				return err
			}

			var network domain.Network
			err = waitForBrowser(cmd.Context(), cmd.ErrOrStderr(), fmt.Sprintf("Waiting for %s to switch chain...", browserID), app.pendingFor(cmd.Context(), browserID), func(ctx context.Context) error {
				var switchErr error
				network, switchErr = app.service.SwitchChain(ctx, application.SwitchChainCommand{
					Browser: domain.BrowserID(browserID),
					ChainID: chainID,
				})
				return switchErr
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Network: %s (chain %s, %s)\n", network.Name, network.ChainID, network.Currency)
			return err
		},
	}

	addBrowserFlag(cmd, app, &browserID)

	return cmd
}

func writeConnection(cmd *cobra.Command, state domain.ConnectionState) error {
	accounts := make([]string, 0, len(state.Accounts))
	for _, account := range state.Accounts {
		accounts = append(accounts, statusadapter.DisplayAddress(account))
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Connected on %s (%s)\nAccounts: %s\n",
		domain.NetworkName(state.ChainID), state.ChainID.Hex(), strings.Join(accounts, ", "))
	return err
}
