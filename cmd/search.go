package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leads-cli/internal/model"
	"github.com/sells-group/leads-cli/internal/rank"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a lead search through the automation webhook",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := strings.Join(args, " ")

		env, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		out, err := env.orch.Search(ctx, query)
		if err != nil {
			return err
		}

		zap.L().Info("search complete",
			zap.String("query", query),
			zap.Int("rows", len(out.Rows)),
			zap.Int("duplicates", out.DuplicateCount),
			zap.Int("remaining_access", out.RemainingAccess),
		)

		rows := rank.Sort(out.Rows, rank.SortSpec{})
		if searchJSON {
			return printRowsJSON(rows)
		}
		printRowsTable(rows)
		fmt.Printf("\n%d rows, %d duplicates suppressed, %d searches remaining\n",
			len(rows), out.DuplicateCount, out.RemainingAccess)
		return nil
	},
}

func printRowsJSON(rows []model.Lead) error {
	flat := make([]map[string]string, len(rows))
	for i, r := range rows {
		flat[i] = r.AsRow()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(flat)
}

func printRowsTable(rows []model.Lead) {
	for _, r := range rows {
		fmt.Printf("%-30s %-16s %-30s %s\n",
			truncate(r.Name, 30), truncate(r.Phone, 16),
			truncate(r.Website, 30), truncate(r.Address, 40))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print rows as JSON")
	rootCmd.AddCommand(searchCmd)
}
