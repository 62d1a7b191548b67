package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openbakery/openbakery/pkg/stores"
)

func newLedgerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the local registration ledger",
	}
	cmd.AddCommand(newLedgerListCommand())
	return cmd
}

func newLedgerListCommand() *cobra.Command {
	var (
		ledgerPath string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent registrations, newest first",
		Example: `  bakeryctl ledger list --ledger registrations.db
  bakeryctl ledger list --ledger registrations.db --limit 10 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ledger, err := stores.NewLedger(stores.Config{Path: ledgerPath})
			if err != nil {
				return err
			}
			if err := ledger.Init(ctx); err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer ledger.Close()

			regs, err := ledger.List(ctx, limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(regs)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REGISTERED\tRECIPE\tBAKERY\tFLOW\tRUN")
			for _, reg := range regs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					reg.RegisteredAt.Format("2006-01-02 15:04:05"),
					reg.RecipeID, reg.BakeryID, reg.FlowID, reg.RunID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&ledgerPath, "ledger", "registrations.db", "SQLite ledger path")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows to return")

	return cmd
}
