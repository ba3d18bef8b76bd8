package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/spf13/cobra"
)

func newBrowserCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browser",
		Short: "Manage browser profiles",
	}

	cmd.AddCommand(
		newBrowserListCmd(app),
		newBrowserSetCmd(app),
	)

	return cmd
}

func newBrowserListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured browsers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := app.service.ListBrowsers(cmd.Context())
			if err != nil {
				return err
			}

			for _, profile := range profiles {
				command := strings.TrimSpace(strings.Join(append([]string{profile.Command}, profile.Args...), " "))
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", profile.ID, profile.Name, command)
			}

			return nil
		},
	}
}

func newBrowserSetCmd(app *app) *cobra.Command {
	var (
		name    string
		icon    string
		command string
		args    []string
	)

	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Add or replace a browser profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			profile := domain.BrowserProfile{
				ID:      domain.BrowserID(positional[0]),
				Name:    name,
				Icon:    icon,
				Command: command,
				Args:    args,
			}
			if err := app.service.SaveBrowser(cmd.Context(), profile); err != nil {
				return err
			}

			profile.Normalize()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Saved browser %s\n", profile.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&icon, "icon", "", "Icon reference")
	cmd.Flags().StringVar(&command, "command", "", "Executable that opens a URL")
	cmd.Flags().StringArrayVar(&args, "arg", nil, "Argument placed before the URL (repeatable)")
	_ = cmd.MarkFlagRequired("command")

	return cmd
}
