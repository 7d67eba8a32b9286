package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"storedb/pkg/concurrency/transaction"
	"storedb/pkg/optimizer"
	"storedb/pkg/primitives"
)

var (
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Build statistics and estimate a predicate's selectivity",
		RunE:  statsRun,
	}

	statsField   = 0
	statsBuckets = optimizer.DefaultHistogramBuckets
	statsPred    = ""
	statsValue   = int32(0)
)

func init() {
	fs := statsCmd.Flags()
	fs.IntVar(&statsField, "field", statsField, "`index` of the integer column to estimate on")
	fs.IntVar(&statsBuckets, "buckets", statsBuckets, "histogram bucket count")
	fs.StringVar(&statsPred, "predicate", statsPred, "one of =, !=, <, <=, >, >=; omit to just build")
	fs.Int32Var(&statsValue, "value", statsValue, "comparison operand")
	rootCmd.AddCommand(statsCmd)
}

func statsRun(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	out := cmd.OutOrStdout()

	return s.runInTxn(func(tid *transaction.TransactionID) error {
		stats, err := optimizer.NewTableStats(tid, s.file, s.pool, statsBuckets)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%d tuples\n", stats.NumTuples())
		if hist := stats.Histogram(statsField); hist != nil {
			fmt.Fprintln(out, hist)
		}

		if statsPred == "" {
			return nil
		}

		pred, err := parsePredicate(statsPred)
		if err != nil {
			return err
		}

		sel, err := stats.EstimateSelectivity(statsField, pred, statsValue)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "selectivity(col%d %s %d) = %.4f\n", statsField, pred, statsValue, sel)
		return nil
	})
}

func parsePredicate(s string) (primitives.Predicate, error) {
	switch s {
	case "=", "==":
		return primitives.Equals, nil
	case "!=", "<>":
		return primitives.NotEqual, nil
	case "<":
		return primitives.LessThan, nil
	case "<=":
		return primitives.LessThanOrEqual, nil
	case ">":
		return primitives.GreaterThan, nil
	case ">=":
		return primitives.GreaterThanOrEqual, nil
	default:
		return 0, fmt.Errorf("unknown predicate %q", s)
	}
}
