package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/leads-cli/internal/rank"
)

var dedupeTab string

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Remove duplicate rows from the lead tab",
	Long: `Fetches the lead tab, finds rows whose name, phone, website, and
address match an earlier row, and removes them. With a remove-duplicates
webhook configured the rows are deleted from the sheet itself; otherwise
the removal only affects this run's output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.orch.FetchSheet(ctx, dedupeTab); err != nil {
			return err
		}

		out, err := env.orch.RemoveDuplicates(ctx)
		if err != nil {
			return err
		}

		fmt.Println(out.Message)
		if out.FallbackReason != "" {
			fmt.Printf("remote deletion error: %s\n", out.FallbackReason)
		}
		if out.Removed > 0 {
			fmt.Printf("%d duplicate rows removed, %d rows remain\n",
				out.Removed, len(env.orch.VisibleRows()))
		}
		return nil
	},
}

var toggleCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "Show the lead tab with duplicate rows included",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.orch.FetchSheet(ctx, ""); err != nil {
			return err
		}

		env.orch.ToggleDuplicatesVisible()
		printRowsTable(rank.Sort(env.orch.VisibleRows(), rank.SortSpec{}))
		fmt.Printf("\n%d duplicates in %d rows\n",
			env.orch.DuplicateCount(), len(env.orch.VisibleRows()))
		return nil
	},
}

func init() {
	dedupeCmd.Flags().StringVar(&dedupeTab, "tab", "", "sheet tab (default: signed-in user's tab)")
	rootCmd.AddCommand(dedupeCmd)
	rootCmd.AddCommand(toggleCmd)
}
