package main

import (
	"errors"
	"fmt"

	"ontology-backend/application/queries"

	"github.com/spf13/cobra"
)

var errBelowThreshold = errors.New("health score below threshold")

func newHealthCmd() *cobra.Command {
	var failUnder int
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Score the ontology and print the health report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := ask(cmd, queries.GetHealthReportQuery{})
			if err != nil {
				return err
			}
			hr, ok := res.(*queries.HealthResult)
			if !ok {
				return fmt.Errorf("unexpected health result %T", res)
			}
			if hr.Report == nil {
				return fmt.Errorf("health scan failed: %s", hr.Error)
			}
			if err := printJSON(cmd, hr.Report); err != nil {
				return err
			}
			if failUnder > 0 && hr.Report.Score < failUnder {
				return fmt.Errorf("%w: %d < %d", errBelowThreshold, hr.Report.Score, failUnder)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&failUnder, "fail-under", 0, "exit non-zero when the score is below this value")
	return cmd
}

type viewFlags struct {
	search  string
	filters []string
}

func (f *viewFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.search, "search", "", "case-insensitive search over name, type, category and description")
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "property:value filter, repeatable")
}

func newLayoutCmd() *cobra.Command {
	var vf viewFlags
	var direction string
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the filtered graph with every node positioned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := ask(cmd, queries.GetLayoutQuery{Search: vf.search, Filters: vf.filters, Direction: direction})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	vf.bind(cmd)
	cmd.Flags().StringVar(&direction, "direction", "TB", "layout direction: TB, BT, LR or RL")
	return cmd
}

func newNodesCmd() *cobra.Command {
	var vf viewFlags
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Print the nodes and edges that match the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := ask(cmd, queries.GetGraphViewQuery{Search: vf.search, Filters: vf.filters})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	vf.bind(cmd)
	return cmd
}

func newCountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Count the items in every ontology collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := ask(cmd, queries.GetCollectionCountsQuery{})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables <view>",
		Short: "Print the rows behind a table view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ask(cmd, queries.GetTableDataQuery{View: args[0]})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}
