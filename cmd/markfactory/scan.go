package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func buildScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Rank the configured markets by return",
		RunE:  runScan,
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
	source, release, err := buildProvider()
	if err != nil {
		return err
	}
	defer release()

	result, err := source.Scan(cmd.Context(), request())
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Market", "Return %", "Trades", "Final equity"})
	for _, score := range result.AllResults {
		trades := "-"
		if score.Trades != nil {
			trades = fmt.Sprint(*score.Trades)
		}
		table.Append([]string{score.Market, formatValue(score.ReturnPct), trades, formatValue(score.FinalEquity)})
	}
	table.Render()

	if result.BestAsset != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Best market: %s\n", result.BestAsset.Market)
	}

	return nil
}
