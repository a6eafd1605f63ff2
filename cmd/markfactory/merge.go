package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/raykavin/markfactory/pkg/core"
	"github.com/raykavin/markfactory/pkg/merge"
	"github.com/spf13/cobra"
)

var marksFile string

func buildMergeCmd() *cobra.Command {
	mergeCmd := &cobra.Command{
		Use:   "merge <comparison.json>",
		Short: "Merge a saved comparison into display records",
		Args:  cobra.ExactArgs(1),
		RunE:  runMerge,
	}

	mergeCmd.Flags().StringVar(&marksFile, "marks", "", "Marks CSV exported from the chart (date,side,price)")

	return mergeCmd
}

func runMerge(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read comparison: %w", err)
	}

	var comparison core.Comparison
	if err := json.Unmarshal(content, &comparison); err != nil {
		return fmt.Errorf("invalid comparison %s: %w", args[0], err)
	}

	var marks []core.MarkedTrade
	if marksFile != "" {
		if marks, err = readMarks(marksFile); err != nil {
			return err
		}
	}

	records := merge.Overlay(merge.FromComparison(&comparison).Records(), marks)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Date", "Price", "Benchmark", "Strategy", "Buy", "Sell"})
	for _, record := range records {
		table.Append([]string{
			record.Date,
			formatValue(record.Price),
			formatValue(record.Benchmark),
			formatValue(record.Strategy),
			formatValue(record.BuyOverlay),
			formatValue(record.SellOverlay),
		})
	}
	table.Render()

	return nil
}

// readMarks reads a marks CSV. Rows with an unknown side are skipped.
func readMarks(path string) ([]core.MarkedTrade, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open marks: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read marks: %w", err)
	}

	marks := make([]core.MarkedTrade, 0, len(rows))
	for i, row := range rows {
		if len(row) < 3 || (i == 0 && row[0] == "date") {
			continue
		}

		side, err := core.ParseSide(row[1])
		if err != nil {
			log.WithField("line", i+1).Warn(err)
			continue
		}

		price, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid price %q", path, i+1, row[2])
		}

		marks = append(marks, core.MarkedTrade{TimeKey: row[0], Price: price, Side: side})
	}

	return marks, nil
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
