// Package cmd implements the storedb command line shell: small
// subcommands that open a heap file described by a schema flag and run
// inserts, scans, aggregates, or statistics against it.
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"storedb/pkg/concurrency/transaction"
	"storedb/pkg/logging"
	"storedb/pkg/memory"
	"storedb/pkg/primitives"
	"storedb/pkg/storage/heap"
	"storedb/pkg/tuple"
	"storedb/pkg/types"
)

var (
	rootCmd = &cobra.Command{
		Use:               "storedb",
		Short:             "A heap-file storage engine",
		Long:              "storedb stores relations in paged heap files behind a transactional buffer pool.",
		PersistentPreRunE: rootPreRun,
		PersistentPostRun: rootPostRun,
		SilenceUsage:      true,
	}

	logLevel = "info"
	logFile  = ""

	tableFile   = ""
	tableSchema = ""
	poolPages   = memory.DefaultPageCount
)

func init() {
	initRootFlags(rootCmd.PersistentFlags())
}

func initRootFlags(fs *pflag.FlagSet) {
	fs.StringVar(&logLevel, "log-level", logLevel,
		"log level: trace, debug, info, warn, or error")
	fs.StringVar(&logFile, "log-file", logFile, "`file` to use for logging; stderr if empty")
	fs.StringVar(&tableFile, "file", tableFile, "heap `file` backing the table")
	fs.StringVar(&tableSchema, "schema", tableSchema,
		"table schema, e.g. \"name:string,age:int\"")
	fs.IntVar(&poolPages, "pool-pages", poolPages, "buffer pool capacity in pages")
}

// Execute runs the shell.
func Execute() error {
	return rootCmd.Execute()
}

func rootPreRun(cmd *cobra.Command, args []string) error {
	if err := logging.Init(logging.Config{Level: logLevel, OutputPath: logFile}); err != nil {
		return fmt.Errorf("storedb: %s", err)
	}
	logging.GetLogger().WithField("command", cmd.Name()).Debug("storedb starting")
	return nil
}

func rootPostRun(cmd *cobra.Command, args []string) {
	logging.Close()
}

// session bundles the pieces every subcommand needs: the catalog, the
// buffer pool, and the opened table.
type session struct {
	tables *memory.TableManager
	pool   *memory.PageStore
	file   *heap.HeapFile
}

// openSession opens the table named by the --file/--schema flags.
func openSession() (*session, error) {
	if tableFile == "" {
		return nil, fmt.Errorf("--file is required")
	}

	desc, err := parseSchema(tableSchema)
	if err != nil {
		return nil, err
	}

	file, err := heap.NewHeapFile(primitives.Filepath(tableFile), desc)
	if err != nil {
		return nil, err
	}

	tables := memory.NewTableManager()
	if err := tables.AddTable(file, tableFile); err != nil {
		file.Close()
		return nil, err
	}

	return &session{
		tables: tables,
		pool:   memory.NewPageStore(tables, poolPages),
		file:   file,
	}, nil
}

func (s *session) close() {
	if err := s.tables.Close(); err != nil {
		log.WithError(err).Warn("failed to close tables")
	}
}

// runInTxn runs fn inside a fresh transaction, committing on success and
// rolling back on error.
func (s *session) runInTxn(fn func(tid *transaction.TransactionID) error) error {
	txn := transaction.Begin()

	if err := fn(txn.ID()); err != nil {
		if abortErr := txn.Abort(s.pool); abortErr != nil {
			log.WithError(abortErr).Warn("rollback failed")
		}
		return err
	}
	return txn.Commit(s.pool)
}

// parseSchema turns "name:string,age:int" into a tuple description.
func parseSchema(schema string) (*tuple.TupleDescription, error) {
	if schema == "" {
		return nil, fmt.Errorf("--schema is required")
	}

	var (
		fieldTypes []types.Type
		fieldNames []string
	)
	for _, column := range strings.Split(schema, ",") {
		name, typeName, found := strings.Cut(strings.TrimSpace(column), ":")
		if !found {
			return nil, fmt.Errorf("malformed column %q, want name:type", column)
		}

		switch strings.ToLower(strings.TrimSpace(typeName)) {
		case "int":
			fieldTypes = append(fieldTypes, types.IntType)
		case "string":
			fieldTypes = append(fieldTypes, types.StringType)
		default:
			return nil, fmt.Errorf("unknown column type %q", typeName)
		}
		fieldNames = append(fieldNames, strings.TrimSpace(name))
	}

	return tuple.NewTupleDesc(fieldTypes, fieldNames)
}

// parseRow turns "alice,30" into a tuple of the given schema.
func parseRow(desc *tuple.TupleDescription, row string) (*tuple.Tuple, error) {
	values := strings.Split(row, ",")
	if len(values) != desc.NumFields() {
		return nil, fmt.Errorf("row %q has %d values, schema has %d fields",
			row, len(values), desc.NumFields())
	}

	t := tuple.NewTuple(desc)
	for i, raw := range values {
		raw = strings.TrimSpace(raw)
		fieldType, _ := desc.TypeAt(i)

		var field types.Field
		switch fieldType {
		case types.IntType:
			v, err := strconv.ParseInt(raw, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("column %d: %q is not an integer", i, raw)
			}
			field = types.NewIntField(int32(v))
		default:
			field = types.NewStringField(raw)
		}

		if err := t.SetField(i, field); err != nil {
			return nil, err
		}
	}
	return t, nil
}
