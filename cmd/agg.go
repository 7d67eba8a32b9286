package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"storedb/pkg/concurrency/transaction"
	"storedb/pkg/execution"
	"storedb/pkg/execution/aggregation"
	"storedb/pkg/iterator"
	"storedb/pkg/tuple"
)

var (
	aggCmd = &cobra.Command{
		Use:   "agg",
		Short: "Compute a grouped aggregate over a table",
		RunE:  aggRun,
	}

	aggOpName = "count"
	aggField  = 0
	aggGroup  = aggregation.NoGrouping
)

func init() {
	fs := aggCmd.Flags()
	fs.StringVar(&aggOpName, "op", aggOpName, "aggregate: count, sum, min, max, or avg")
	fs.IntVar(&aggField, "field", aggField, "`index` of the column to aggregate")
	fs.IntVar(&aggGroup, "group", aggGroup, "`index` of the column to group by; -1 for none")
	rootCmd.AddCommand(aggCmd)
}

func aggRun(cmd *cobra.Command, args []string) error {
	op, err := aggregation.ParseAggregateOp(aggOpName)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	out := cmd.OutOrStdout()

	return s.runInTxn(func(tid *transaction.TransactionID) error {
		scan, err := execution.NewSeqScan(tid, s.file, s.pool)
		if err != nil {
			return err
		}

		agg, err := aggregation.NewAggregate(scan, aggField, aggGroup, op)
		if err != nil {
			return err
		}
		if err := agg.Open(); err != nil {
			return err
		}
		defer agg.Close()

		fmt.Fprintln(out, agg.GetTupleDesc())
		return iterator.ForEach(agg, func(t *tuple.Tuple) error {
			fmt.Fprintln(out, t)
			return nil
		})
	})
}
