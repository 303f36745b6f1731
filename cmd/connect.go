package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConnectCmd() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Start or complete the authorization flow",
		Long: `Connect prints the provider authorization URL. After approving
access, the redirect delivers a one-time code; pass it back with --code
to redeem it and store credentials at the backend proxy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := newRuntime(ctx, nil)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			out := cmd.OutOrStdout()

			if code == "" {
				url, err := rt.manager.Connect(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Visit %s to authorize access, then run:\n", url)
				fmt.Fprintln(out, "  driveway connect --code <code>")
				return nil
			}

			if err := rt.manager.Establish(ctx, code); err != nil {
				return err
			}
			if !rt.manager.Authenticated() {
				return fmt.Errorf("code redeemed but no credentials were stored")
			}

			fmt.Fprintln(out, "Connected.")
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "one-time authorization code from the redirect")

	return cmd
}
