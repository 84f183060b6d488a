package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Bearer token helpers",
}

var tokenMintCmd = &cobra.Command{
	Use:   "mint <account-id>",
	Short: "Mint an HS256 bearer token for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.Config.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is not set")
		}
		tok, err := app.Auth.Mint(args[0], tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenMintCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	tokenCmd.AddCommand(tokenMintCmd)
	rootCmd.AddCommand(tokenCmd)
}
