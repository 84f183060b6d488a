package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"toolix-activation/internal/domain/model"
)

var codeCmd = &cobra.Command{
	Use:   "code",
	Short: "Activation code helpers",
}

var (
	issueSession   string
	issuePlan      string
	issueSingleUse bool
)

var codeIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Mint the code for a verified payment session",
	Long: `Mint the activation code for a checkout session that support has verified
by hand. Re-running for the same session prints the code minted first.

Example:
  toolixctl code issue --session cs_live_123 --plan monthly`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if issueSession == "" {
			return errors.New("missing --session")
		}
		plan, err := model.LookupPurchasablePlan(model.PlanID(issuePlan))
		if err != nil {
			return err
		}
		issued, err := app.CodeUC.IssueForSession(cmd.Context(), issueSession, plan.ID, plan.DurationHours, issueSingleUse)
		if err != nil {
			return fmt.Errorf("issue code: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Code:     %s\n", issued.Code.Code)
		fmt.Fprintf(out, "Hash:     %s\n", issued.Code.CodeHash)
		fmt.Fprintf(out, "Plan:     %s (%dh)\n", issued.Code.Plan, issued.Code.DurationHours)
		if issued.AlreadyRedeemed {
			fmt.Fprintln(out, "Note:     session already had a code")
		}
		return nil
	},
}

var codeValidateCmd = &cobra.Command{
	Use:   "validate <code-or-hash>",
	Short: "Validate a code the way a desktop client does (consumes single-use codes)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash := args[0]
		if model.IsValidCodeFormat(hash) {
			hash = model.HashCode(hash)
		}
		res, err := app.CodeUC.Validate(cmd.Context(), hash)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !res.Valid {
			fmt.Fprintln(out, "invalid")
			return nil
		}
		fmt.Fprintf(out, "valid: %dh single_use=%t\n", res.DurationHours, res.SingleUse)
		return nil
	},
}

var codeHashCmd = &cobra.Command{
	Use:         "hash <code>",
	Short:       "Print the SHA-256 hash a client submits for a code",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipAppAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !model.IsValidCodeFormat(args[0]) {
			return fmt.Errorf("%q is not a TOOLIX-XXX-YYYYYYYYYYYY code", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), model.HashCode(args[0]))
		return nil
	},
}

func init() {
	codeIssueCmd.Flags().StringVar(&issueSession, "session", "", "checkout session id")
	codeIssueCmd.Flags().StringVar(&issuePlan, "plan", string(model.PlanWeekly), "weekly|monthly|yearly")
	codeIssueCmd.Flags().BoolVar(&issueSingleUse, "single-use", false, "consume the code on first validation")

	codeCmd.AddCommand(codeIssueCmd)
	codeCmd.AddCommand(codeValidateCmd)
	codeCmd.AddCommand(codeHashCmd)
	rootCmd.AddCommand(codeCmd)
}
