package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/isam/cmd/util"
	"github.com/ValentinKolb/isam/lib/isam"
)

// --------------------------------------------------------------------------
// Column specs
// --------------------------------------------------------------------------

var columnFlagNames = map[string]isam.ColumnFlags{
	"fixed":         isam.ColumnFixed,
	"variable":      isam.ColumnVariable,
	"sparse":        isam.ColumnSparse,
	"notnull":       isam.ColumnNonNull,
	"version":       isam.ColumnVersion,
	"autoincrement": isam.ColumnAutoIncrement,
	"updatable":     isam.ColumnUpdatable,
	"multivalued":   isam.ColumnMultiValued,
	"escrow":        isam.ColumnEscrowUpdate,
	"finalize":      isam.ColumnFinalize,
	"deleteonzero":  isam.ColumnDeleteOnZero,
}

// ParseColumnSpec parses name:type[:maxlen][:flag|flag...][:default=value]
func ParseColumnSpec(spec string) (isam.ColumnDefinition, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || parts[0] == "" {
		return isam.ColumnDefinition{}, fmt.Errorf("invalid column %q, expected name:type[:maxlen][:flags][:default=value]", spec)
	}

	def := isam.ColumnDefinition{Name: parts[0]}
	typ, ok := isam.ParseColumnType(strings.ToLower(parts[1]))
	if !ok {
		return def, fmt.Errorf("invalid column %q: unknown type %s", spec, parts[1])
	}
	def.Type = typ

	var defaultValue *string
options:
	for i := 2; i < len(parts); i++ {
		part := parts[i]
		switch {
		case strings.HasPrefix(part, "default="):
			// the default is the rest of the spec, it may contain colons
			value := strings.Join(append([]string{strings.TrimPrefix(part, "default=")}, parts[i+1:]...), ":")
			defaultValue = &value
			break options
		case isNumber(part):
			n, err := strconv.Atoi(part)
			if err != nil {
				return def, fmt.Errorf("invalid column %q: %w", spec, err)
			}
			def.MaxLength = n
		default:
			flags, err := parseFlags(part, columnFlagNames)
			if err != nil {
				return def, fmt.Errorf("invalid column %q: %w", spec, err)
			}
			def.Flags |= flags
		}
	}

	if defaultValue != nil {
		value, err := parseDefault(def, *defaultValue)
		if err != nil {
			return def, fmt.Errorf("invalid default of column %s: %w", def.Name, err)
		}
		def.DefaultValue = value
	}
	return def, nil
}

func parseDefault(def isam.ColumnDefinition, raw string) (any, error) {
	// uint64 is stored in a binary column but written as a number
	if def.Type == isam.ColumnTypeUInt64 {
		return strconv.ParseUint(raw, 10, 64)
	}
	coltyp, err := isam.ColtypFromColumnDefinition(def)
	if err != nil {
		return nil, err
	}
	return util.ParseValue(coltyp, raw)
}

// --------------------------------------------------------------------------
// Index specs
// --------------------------------------------------------------------------

var indexFlagNames = map[string]isam.IndexFlags{
	"unique":             isam.IndexUnique,
	"primary":            isam.IndexPrimary,
	"disallownull":       isam.IndexDisallowNull,
	"ignorenull":         isam.IndexIgnoreNull,
	"ignoreanynull":      isam.IndexIgnoreAnyNull,
	"ignorefirstnull":    isam.IndexIgnoreFirstNull,
	"sortnullshigh":      isam.IndexSortNullsHigh,
	"allowtruncation":    isam.IndexAllowTruncation,
	"disallowtruncation": isam.IndexDisallowTruncation,
}

// ParseIndexSpec parses name:+col-col[:flag|flag...][:maxkey]
func ParseIndexSpec(spec string) (isam.IndexDefinition, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || parts[0] == "" {
		return isam.IndexDefinition{}, fmt.Errorf("invalid index %q, expected name:+col-col[:flags][:maxkey]", spec)
	}

	def := isam.IndexDefinition{Name: parts[0]}
	keys, err := ParseKeyColumns(parts[1])
	if err != nil {
		return def, fmt.Errorf("invalid index %q: %w", spec, err)
	}
	def.KeyColumns = keys

	for _, part := range parts[2:] {
		if isNumber(part) {
			n, err := strconv.Atoi(part)
			if err != nil {
				return def, fmt.Errorf("invalid index %q: %w", spec, err)
			}
			def.MaxKeyLength = n
			continue
		}
		flags, err := parseFlags(part, indexFlagNames)
		if err != nil {
			return def, fmt.Errorf("invalid index %q: %w", spec, err)
		}
		def.Flags |= flags
	}
	return def, nil
}

// ParseKeyColumns parses a key like "+name-age". Every column starts with
// '+' (ascending) or '-' (descending).
func ParseKeyColumns(key string) ([]isam.KeyColumn, error) {
	if key == "" {
		return nil, fmt.Errorf("empty key")
	}
	if key[0] != '+' && key[0] != '-' {
		return nil, fmt.Errorf("key %q must start with + or -", key)
	}

	var columns []isam.KeyColumn
	start := 0
	for i := 1; i <= len(key); i++ {
		if i < len(key) && key[i] != '+' && key[i] != '-' {
			continue
		}
		name := key[start+1 : i]
		if name == "" {
			return nil, fmt.Errorf("key %q has an empty column name", key)
		}
		columns = append(columns, isam.KeyColumn{Name: name, Descending: key[start] == '-'})
		start = i
	}
	return columns, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func parseFlags[F ~uint32](part string, names map[string]F) (F, error) {
	var flags F
	for _, name := range strings.Split(part, "|") {
		flag, ok := names[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("unknown flag %s", name)
		}
		flags |= flag
	}
	return flags, nil
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
