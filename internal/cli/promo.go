package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var promoCmd = &cobra.Command{
	Use:   "promo",
	Short: "Promo token helpers",
}

var promoTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a promo token and print its claim link",
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := app.PromoUC.IssueToken(cmd.Context())
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Token:    %s\n", tok.Token)
		fmt.Fprintf(out, "Expires:  %s\n", tok.ExpiresAt.UTC().Format(time.RFC3339))
		if base := strings.TrimRight(app.Config.Server.PublicBaseURL, "/"); base != "" {
			fmt.Fprintf(out, "Claim:    %s/promo/%s\n", base, tok.Token)
		}
		return nil
	},
}

var promoSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired promo tokens once",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := app.Sweeper().RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "swept %d expired tokens\n", n)
		return nil
	},
}

func init() {
	promoCmd.AddCommand(promoTokenCmd)
	promoCmd.AddCommand(promoSweepCmd)
	rootCmd.AddCommand(promoCmd)
}
