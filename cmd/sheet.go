package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/leads-cli/internal/rank"
)

var (
	sheetTab     string
	sheetJSON    bool
	sheetSortCol string
	sheetSortDir string
)

var sheetCmd = &cobra.Command{
	Use:   "sheet",
	Short: "Fetch the lead tab directly, bypassing the search webhook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.orch.FetchSheet(ctx, sheetTab); err != nil {
			return err
		}

		rows := rank.Sort(env.orch.VisibleRows(), rank.SortSpec{
			Column:    sheetSortCol,
			Direction: rank.Direction(sheetSortDir),
		})

		if sheetJSON {
			return printRowsJSON(rows)
		}
		printRowsTable(rows)
		fmt.Printf("\n%d rows, %d duplicates suppressed\n", len(rows), env.orch.DuplicateCount())
		return nil
	},
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Re-run the last search, or re-fetch the lead tab",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		out, err := env.orch.Reload(ctx)
		if err != nil {
			return err
		}

		printRowsTable(rank.Sort(out.Rows, rank.SortSpec{}))
		fmt.Printf("\n%d rows, %d duplicates suppressed\n", len(out.Rows), out.DuplicateCount)
		return nil
	},
}

func init() {
	sheetCmd.Flags().StringVar(&sheetTab, "tab", "", "sheet tab (default: signed-in user's tab)")
	sheetCmd.Flags().BoolVar(&sheetJSON, "json", false, "print rows as JSON")
	sheetCmd.Flags().StringVar(&sheetSortCol, "sort", "", "column to sort by (default: completeness ranking)")
	sheetCmd.Flags().StringVar(&sheetSortDir, "dir", "asc", "sort direction: asc or desc")
	rootCmd.AddCommand(sheetCmd)
	rootCmd.AddCommand(reloadCmd)
}
