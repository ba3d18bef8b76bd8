package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "wb",
		Short:         "Wallet bridge (wb): use a browser wallet from the terminal",
		Long:          "wb relays wallet requests to an external browser through deep links and waits for the browser to deliver the result back to a local callback server.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentFlags().String("log-level", app.config.GetString(keyLogLevel), "Log level (trace, debug, info, warn, error)")
	_ = app.config.BindPFlag(keyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return app.configureLogging(cmd.ErrOrStderr())
	}
	rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		return app.close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newConnectCmd(app),
		newDisconnectCmd(app),
		newSwitchChainCmd(app),
		newRequestCmd(app),
		newStatusCmd(app),
		newBrowserCmd(app),
		newDeliverCmd(app),
	)

	return rootCmd
}
