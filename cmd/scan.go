package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"storedb/pkg/concurrency/transaction"
	"storedb/pkg/execution"
	"storedb/pkg/iterator"
	"storedb/pkg/tuple"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Print every row of a table in storage order",
	RunE:  scanRun,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func scanRun(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	out := cmd.OutOrStdout()
	count := 0

	err = s.runInTxn(func(tid *transaction.TransactionID) error {
		scan, err := execution.NewSeqScan(tid, s.file, s.pool)
		if err != nil {
			return err
		}
		if err := scan.Open(); err != nil {
			return err
		}
		defer scan.Close()

		return iterator.ForEach(scan, func(t *tuple.Tuple) error {
			fmt.Fprintln(out, t)
			count++
			return nil
		})
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d rows\n", count)
	return nil
}
