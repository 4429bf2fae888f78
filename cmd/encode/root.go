package encode

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/isam/cmd/util"
	"github.com/ValentinKolb/isam/lib/jet"
	"github.com/spf13/cobra"
)

var (
	// EncodeCommands represents the encode command group
	EncodeCommands = &cobra.Command{
		Use:   "encode",
		Short: "Print the text form of engine identifiers",
		Long: `Print the text form of engine identifiers and timestamps.
Times are RFC 3339 or "now"; numbers accept the 0x prefix for hex.`,
	}
	lgposCmd = &cobra.Command{
		Use:   "lgpos [generation] [sector] [offset]",
		Short: "Prints a log position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			lgpos, err := parseLgpos(args)
			if err != nil {
				return err
			}
			fmt.Println(lgpos)
			return nil
		},
	}
	logtimeCmd = &cobra.Command{
		Use:   "logtime [time]",
		Short: "Prints a packed log timestamp",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTime(args[0])
			if err != nil {
				return err
			}
			fmt.Println(jet.NewLogTime(t))
			return nil
		},
	}
	bklogtimeCmd = &cobra.Command{
		Use:   "bklogtime [time]",
		Short: "Prints a packed backup timestamp",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			completed, _ := cmd.Flags().GetBool("completed")
			t, err := parseTime(args[0])
			if err != nil {
				return err
			}
			fmt.Println(jet.NewBkLogTime(t, completed))
			return nil
		},
	}
	bkinfoCmd = &cobra.Command{
		Use:   "bkinfo [gen-low] [gen-high] [generation] [sector] [offset] [time]",
		Short: "Prints a backup description",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			completed, _ := cmd.Flags().GetBool("completed")
			info, err := parseBkInfo(args, completed)
			if err != nil {
				return err
			}
			fmt.Println(info)
			return nil
		},
	}
	signatureCmd = &cobra.Command{
		Use:   "signature [random] [time] [computer-name]",
		Short: "Prints a database signature",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			random, err := parseUint(args[0], 32)
			if err != nil {
				return err
			}
			t, err := parseTime(args[1])
			if err != nil {
				return err
			}
			computer := ""
			if len(args) == 3 {
				computer = args[2]
			}
			fmt.Println(jet.NewSignature(uint32(random), t, computer))
			return nil
		},
	}
	handleCmd = &cobra.Command{
		Use:   "handle [kind] [value]",
		Short: "Prints a handle or id",
		Long: `Prints a handle or id. Kinds: instance, sesid, tableid, ossnapid, handle,
ls, dbid, columnid.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := Handle(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(s)
			return nil
		},
	}
	indexidCmd = &cobra.Command{
		Use:   "indexid [id1] [id2] [id3]",
		Short: "Prints a composite index id",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id1, err := parseUint(args[0], strconv.IntSize)
			if err != nil {
				return err
			}
			id2, err := parseUint(args[1], 32)
			if err != nil {
				return err
			}
			id3, err := parseUint(args[2], 32)
			if err != nil {
				return err
			}
			fmt.Println(jet.IndexId{IndexId1: uintptr(id1), IndexId2: uint32(id2), IndexId3: uint32(id3)})
			return nil
		},
	}
)

func init() {
	key := "completed"
	bklogtimeCmd.Flags().Bool(key, false, util.WrapString("Mark the timestamp as belonging to a completed backup"))
	bkinfoCmd.Flags().Bool(key, false, util.WrapString("Mark the timestamp as belonging to a completed backup"))

	EncodeCommands.AddCommand(lgposCmd)
	EncodeCommands.AddCommand(logtimeCmd)
	EncodeCommands.AddCommand(bklogtimeCmd)
	EncodeCommands.AddCommand(bkinfoCmd)
	EncodeCommands.AddCommand(signatureCmd)
	EncodeCommands.AddCommand(handleCmd)
	EncodeCommands.AddCommand(indexidCmd)
}

// Handle renders value as the handle or id of the given kind
func Handle(kind, value string) (string, error) {
	kind = strings.ToLower(kind)
	if kind == "dbid" {
		n, err := strconv.ParseInt(value, 0, 32)
		if err != nil {
			return "", fmt.Errorf("invalid dbid %q: %w", value, err)
		}
		return jet.Dbid{Value: int32(n)}.String(), nil
	}

	bits := strconv.IntSize
	if kind == "columnid" {
		bits = 32
	}
	n, err := parseUint(value, bits)
	if err != nil {
		return "", err
	}

	switch kind {
	case "instance":
		return jet.Instance{Value: uintptr(n)}.String(), nil
	case "sesid":
		return jet.Sesid{Value: uintptr(n)}.String(), nil
	case "tableid":
		return jet.Tableid{Value: uintptr(n)}.String(), nil
	case "ossnapid":
		return jet.OsSnapid{Value: uintptr(n)}.String(), nil
	case "handle":
		return jet.Handle{Value: uintptr(n)}.String(), nil
	case "ls":
		return jet.Ls{Value: uintptr(n)}.String(), nil
	case "columnid":
		return jet.Columnid{Value: uint32(n)}.String(), nil
	default:
		return "", fmt.Errorf("unknown handle kind %q", kind)
	}
}

// --------------------------------------------------------------------------
// Argument parsing
// --------------------------------------------------------------------------

func parseLgpos(args []string) (jet.Lgpos, error) {
	var parts [3]int32
	for i, arg := range args {
		n, err := strconv.ParseInt(arg, 0, 32)
		if err != nil {
			// generation and sector are shown unsigned, accept that range as well
			u, uerr := strconv.ParseUint(arg, 0, 32)
			if uerr != nil {
				return jet.Lgpos{}, fmt.Errorf("invalid log position part %q: %w", arg, err)
			}
			n = int64(int32(u))
		}
		parts[i] = int32(n)
	}
	return jet.Lgpos{Generation: parts[0], Sector: parts[1], ByteOffset: parts[2]}, nil
}

func parseBkInfo(args []string, completed bool) (jet.BkInfo, error) {
	low, err := parseUint(args[0], 32)
	if err != nil {
		return jet.BkInfo{}, err
	}
	high, err := parseUint(args[1], 32)
	if err != nil {
		return jet.BkInfo{}, err
	}
	lgpos, err := parseLgpos(args[2:5])
	if err != nil {
		return jet.BkInfo{}, err
	}
	t, err := parseTime(args[5])
	if err != nil {
		return jet.BkInfo{}, err
	}
	return jet.BkInfo{
		LgposMark:     lgpos,
		BklogtimeMark: jet.NewBkLogTime(t, completed),
		GenLow:        uint32(low),
		GenHigh:       uint32(high),
	}, nil
}

func parseTime(s string) (time.Time, error) {
	if strings.EqualFold(s, "now") {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t, nil
}

func parseUint(s string, bits int) (uint64, error) {
	n, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return n, nil
}
