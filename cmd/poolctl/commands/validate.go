package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pool-wizard/internal/models"
	vps "pool-wizard/internal/workers/pool/validate-pool-submission"
)

func validateCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <payload.json>",
		Short: "Check a create-pool payload against the wizard rules and schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var req models.CreatePoolRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			cfg := vps.LoadConfig()
			cfg.ThrowOnInvalid = false
			result, err := vps.NewHandler(cfg, log).Execute(context.Background(), &vps.Input{Submission: &req})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else if result.IsValid {
				fmt.Fprintln(out, "payload is valid")
			} else {
				for _, e := range result.ValidationErrors {
					fmt.Fprintf(out, "%s\t%s\t%s\n", e.Step, e.Field, e.Message)
				}
			}

			if !result.IsValid {
				return fmt.Errorf("%d validation errors", len(result.ValidationErrors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
