package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"toolix-activation/internal/domain/model"
	"toolix-activation/internal/usecase"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Inspect and adjust account entitlements",
}

var (
	putUsername string
	putEmail    string

	grantPlan    string
	grantHours   int
	grantSession string
)

var accountPutCmd = &cobra.Command{
	Use:   "put <account-id>",
	Short: "Create or update an account record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		acc := &model.Account{ID: args[0], Username: putUsername, Email: putEmail, CreatedAt: time.Now().UTC()}
		if err := app.AccountWriter.Save(cmd.Context(), nil, acc); err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", acc.ID)
		return nil
	},
}

var accountCheckCmd = &cobra.Command{
	Use:   "check <account-id>",
	Short: "Show the current entitlement of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := app.EntitlementUC.Check(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printStatus(cmd, st.IsPremium, st.Plan, st.ExpiresAt)
		return nil
	},
}

var accountGrantCmd = &cobra.Command{
	Use:   "grant <account-id>",
	Short: "Extend an account by a plan's duration",
	Long: `Extend an account the same way a confirmed payment does. With --session the
grant is recorded against that checkout session and applied at most once.

Example:
  toolixctl account grant 42 --plan monthly --session cs_live_123`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := model.LookupPlan(model.PlanID(grantPlan))
		if err != nil {
			return err
		}
		hours := plan.DurationHours
		if grantHours > 0 {
			hours = grantHours
		}
		if hours <= 0 {
			return errors.New("grant needs a positive duration")
		}
		out, err := app.EntitlementUC.Grant(cmd.Context(), usecase.GrantRequest{
			AccountID: args[0],
			Plan:      plan.ID,
			Hours:     hours,
			SessionID: grantSession,
		})
		if err != nil {
			return fmt.Errorf("grant: %w", err)
		}
		if out.AlreadyRedeemed {
			fmt.Fprintln(cmd.OutOrStdout(), "session already applied")
		}
		printStatus(cmd, true, out.Entitlement.Plan, out.Entitlement.ExpiresAt)
		return nil
	},
}

func printStatus(cmd *cobra.Command, premium bool, plan model.PlanID, expiresAt *time.Time) {
	out := cmd.OutOrStdout()
	exp := "never"
	if expiresAt != nil {
		exp = expiresAt.UTC().Format(time.RFC3339)
	}
	fmt.Fprintf(out, "Premium:  %t\n", premium)
	fmt.Fprintf(out, "Plan:     %s\n", plan)
	fmt.Fprintf(out, "Expires:  %s\n", exp)
}

func init() {
	accountPutCmd.Flags().StringVar(&putUsername, "username", "", "display name")
	accountPutCmd.Flags().StringVar(&putEmail, "email", "", "contact email")

	accountGrantCmd.Flags().StringVar(&grantPlan, "plan", string(model.PlanWeekly), "plan id, including free_promo")
	accountGrantCmd.Flags().IntVar(&grantHours, "hours", 0, "override the plan duration")
	accountGrantCmd.Flags().StringVar(&grantSession, "session", "", "checkout session id for an idempotent grant")

	accountCmd.AddCommand(accountPutCmd)
	accountCmd.AddCommand(accountCheckCmd)
	accountCmd.AddCommand(accountGrantCmd)
	rootCmd.AddCommand(accountCmd)
}
