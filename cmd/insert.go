package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"storedb/pkg/concurrency/transaction"
)

var (
	insertCmd = &cobra.Command{
		Use:   "insert",
		Short: "Insert rows into a table",
		RunE:  insertRun,
	}

	insertRows = []string{}
)

func init() {
	insertCmd.Flags().StringArrayVar(&insertRows, "values", insertRows,
		"comma-separated `row` to insert; repeatable")
	rootCmd.AddCommand(insertCmd)
}

func insertRun(cmd *cobra.Command, args []string) error {
	if len(insertRows) == 0 {
		return fmt.Errorf("at least one --values row is required")
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	err = s.runInTxn(func(tid *transaction.TransactionID) error {
		for _, row := range insertRows {
			t, err := parseRow(s.file.GetTupleDesc(), row)
			if err != nil {
				return err
			}
			if err := s.pool.InsertTuple(tid, s.file.GetID(), t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "inserted %d rows\n", len(insertRows))
	return nil
}
