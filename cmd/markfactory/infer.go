package main

import (
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func buildInferCmd() *cobra.Command {
	inferCmd := &cobra.Command{
		Use:   "infer",
		Short: "Infer a strategy from exported marks",
		RunE:  runInfer,
	}

	inferCmd.Flags().StringVar(&marksFile, "marks", "", "Marks CSV exported from the chart (date,side,price)")
	_ = inferCmd.MarkFlagRequired("marks")

	return inferCmd
}

func runInfer(cmd *cobra.Command, _ []string) error {
	marks, err := readMarks(marksFile)
	if err != nil {
		return err
	}

	source, release, err := buildProvider()
	if err != nil {
		return err
	}
	defer release()

	req := request()
	req.Logic = map[string]any{"marked_trades": marks}

	result, err := source.Infer(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", result.Description, result.Type)

	names := lo.Keys(result.Params)
	sort.Strings(names)

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Param", "Value"})
	for _, name := range names {
		table.Append([]string{name, fmt.Sprint(result.Params[name])})
	}
	table.Render()

	for _, line := range result.Explanation {
		fmt.Fprintln(out, "-", line)
	}

	return nil
}
