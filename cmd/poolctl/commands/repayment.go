package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pool-wizard/internal/wizard"
)

func repaymentCmd() *cobra.Command {
	var (
		amount        string
		rate          string
		term          int
		loanType      string
		propertyValue string
	)

	cmd := &cobra.Command{
		Use:   "repayment",
		Short: "Print monthly interest, final repayment and loan-to-value",
		RunE: func(cmd *cobra.Command, args []string) error {
			if term <= 0 {
				return fmt.Errorf("--term must be a positive number of months")
			}
			a := wizard.ParseMoney(amount)
			r := wizard.ParsePercentage(rate)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Monthly interest: %s\n", wizard.MonthlyInterest(a, r))
			fmt.Fprintf(out, "Final repayment:  %s\n", wizard.FinalRepayment(a, r, term, wizard.LoanType(loanType)))
			if propertyValue != "" {
				fmt.Fprintf(out, "Loan to value:    %s%%\n", wizard.LoanToValue(a, wizard.ParseMoney(propertyValue)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "pool amount, e.g. 250,000")
	cmd.Flags().StringVar(&rate, "rate", "", "annual ROI rate in percent")
	cmd.Flags().IntVar(&term, "term", 12, "term in months")
	cmd.Flags().StringVar(&loanType, "loan-type", string(wizard.LoanTypeInterestOnly), "interest-only or maturity")
	cmd.Flags().StringVar(&propertyValue, "property-value", "", "estimated property value")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("rate")
	return cmd
}
