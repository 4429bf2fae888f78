package row

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ValentinKolb/isam/cmd/util"
	"github.com/ValentinKolb/isam/lib/isam"
	"github.com/ValentinKolb/isam/lib/jet"
	"github.com/spf13/cobra"
)

var (
	// RowCommands represents the row command group
	RowCommands = &cobra.Command{
		Use:   "row",
		Short: "Insert and list table rows",
	}
	insertCmd = &cobra.Command{
		Use:   "insert [db] [table] [column=value...]",
		Short: "Inserts a row and prints it",
		Long: `Inserts a row in its own transaction and prints the stored record as JSON.
A column given without '=' is set to NULL. Date times are RFC 3339, binary
values (including uint64 columns) are hex encoded.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.WithWorkspace(func(ws *util.Workspace) error {
				db, err := ws.OpenDatabase(args[0])
				if err != nil {
					return err
				}
				defer db.Dispose()

				record, err := insert(ws.Session(), db, args[1], args[2:])
				if err != nil {
					return err
				}
				ws.MarkDirty()
				return printRecord(record)
			})
		},
	}
	listCmd = &cobra.Command{
		Use:   "list [db] [table]",
		Short: "Lists the rows of a table as JSON lines",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return util.WithDatabase(args[0], false, func(db *isam.Database) error {
				cursor, err := db.OpenCursorShared(args[1])
				if err != nil {
					return err
				}
				defer cursor.Dispose()

				n := 0
				ok, err := cursor.MoveFirst()
				for ; ok && err == nil && (limit <= 0 || n < limit); ok, err = cursor.MoveNext() {
					record, err := cursor.Record()
					if err != nil {
						return err
					}
					if err := printRecord(record); err != nil {
						return err
					}
					n++
				}
				return err
			})
		},
	}
)

func init() {
	key := "limit"
	listCmd.Flags().Int(key, 0, util.WrapString("Maximum number of rows to print, 0 prints all"))

	RowCommands.AddCommand(insertCmd)
	RowCommands.AddCommand(listCmd)
}

// insert writes one row inside a transaction and returns the stored record
func insert(session *isam.Session, db *isam.Database, table string, assignments []string) (map[string]any, error) {
	cursor, err := db.OpenCursorShared(table)
	if err != nil {
		return nil, err
	}
	defer cursor.Dispose()

	values, err := ParseAssignments(cursor.Columns(), assignments)
	if err != nil {
		return nil, err
	}

	tx, err := session.BeginTransaction()
	if err != nil {
		return nil, err
	}
	defer tx.Dispose()

	if err := cursor.Insert(values); err != nil {
		return nil, err
	}
	record, err := cursor.Record()
	if err != nil {
		return nil, err
	}
	return record, tx.Commit()
}

// ParseAssignments converts column=value arguments into column values
func ParseAssignments(columns []jet.ColumnInfo, assignments []string) (map[string]any, error) {
	byName := make(map[string]jet.ColumnInfo, len(columns))
	for _, column := range columns {
		byName[strings.ToLower(column.Name)] = column
	}

	values := make(map[string]any, len(assignments))
	for _, assignment := range assignments {
		name, raw, hasValue := strings.Cut(assignment, "=")
		column, ok := byName[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		if !hasValue {
			values[column.Name] = nil
			continue
		}
		value, err := util.ParseValue(column.Coltyp, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid value for column %s (%s): %w", column.Name, column.Coltyp, err)
		}
		values[column.Name] = value
	}
	return values, nil
}

// printRecord writes a record as one JSON line with binary values hex encoded
func printRecord(record map[string]any) error {
	out := make(map[string]any, len(record))
	for name, value := range record {
		if b, ok := value.([]byte); ok {
			value = hex.EncodeToString(b)
		}
		out[name] = value
	}
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
