package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leads-cli/internal/config"
	"github.com/sells-group/leads-cli/internal/export"
	"github.com/sells-group/leads-cli/internal/rank"
)

var (
	exportTab    string
	exportOutput string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the deduplicated lead tab as CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.orch.FetchSheet(ctx, exportTab); err != nil {
			return err
		}
		rows := rank.Sort(env.orch.VisibleRows(), rank.SortSpec{})

		f, err := os.Create(exportOutput)
		if err != nil {
			return eris.Wrapf(err, "create %s", exportOutput)
		}
		defer f.Close() //nolint:errcheck

		switch exportFormat {
		case "csv":
			err = export.WriteCSV(f, rows)
		case "xlsx":
			err = export.WriteXLSX(f, rows)
		default:
			return eris.Errorf("unknown format %q (want csv or xlsx)", exportFormat)
		}
		if err != nil {
			return err
		}

		fmt.Printf("wrote %d rows to %s\n", len(rows), exportOutput)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteTemplate("config.yaml"); err != nil {
			return err
		}
		fmt.Println("wrote config.yaml")
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportTab, "tab", "", "sheet tab (default: signed-in user's tab)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "sheet-data.csv", "output file")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	rootCmd.AddCommand(exportCmd)

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
