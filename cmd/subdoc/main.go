// Command subdoc-bench is the out-of-core benchmark front-end for the
// subdoc engine (spec.md §6), grounded on
// original_source/subdoc-bench.cc's cliopts-based Options/runMain and on
// eykd-prosemark-go/cmd's cobra wiring style (single cobra.Command, flags
// bound via cmd.Flags(), RunE returning error instead of throwing).
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentflare-ai/subdoc"
)

// opmap mirrors subdoc-bench.cc's Options::initOpmap, extended with
// GET_COUNT (not present in the original cliopts tool, but named by
// spec.md §6's command list as "path" is -- path is handled separately
// below, matching execPathParse).
var opmap = map[string]subdoc.Command{
	"get":        subdoc.CmdGet,
	"exists":     subdoc.CmdExists,
	"replace":    subdoc.CmdReplace,
	"delete":     subdoc.CmdRemove,
	"add":        subdoc.CmdDictAdd,
	"upsert":     subdoc.CmdDictUpsert,
	"append":     subdoc.CmdArrayAppend,
	"prepend":    subdoc.CmdArrayPrepend,
	"addunique":  subdoc.CmdArrayAddUnique,
	"insert":     subdoc.CmdArrayInsert,
	"incr":       subdoc.CmdCounter,
	"decr":       subdoc.CmdCounter,
	"get_count":  subdoc.CmdGetCount,
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "subdoc-bench",
		Short:         "subdoc-bench - benchmark harness for the subdoc mutation engine",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runBench,
	}
	flags := root.Flags()
	flags.Uint64P("iterations", "i", 1000, "number of iterations to run")
	flags.StringP("docpath", "p", "", "document path to manipulate (mandatory)")
	flags.StringP("value", "v", "", "document value to insert")
	flags.StringP("json", "f", "", "JSON file to operate on (mandatory for data commands)")
	flags.StringP("command", "c", "", "command to run: "+commandNames()+", or \"path\" (mandatory)")
	flags.BoolP("mkdir-p", "M", false, "enable mkdir-p semantics on dict/array/counter commands")
	return root
}

func commandNames() string {
	names := []string{"get", "exists", "replace", "delete", "add", "upsert", "append", "prepend", "addunique", "insert", "incr", "decr"}
	s := ""
	for i, n := range names {
		if i > 0 {
			s += ", "
		}
		s += n
	}
	return s
}

func runBench(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	iterations, _ := flags.GetUint64("iterations")
	path, _ := flags.GetString("docpath")
	value, _ := flags.GetString("value")
	jsonFile, _ := flags.GetString("json")
	cmdName, _ := flags.GetString("command")
	mkdirP, _ := flags.GetBool("mkdir-p")

	if cmdName == "" {
		return fmt.Errorf("--command is mandatory")
	}
	if path == "" && cmdName != "path" {
		return fmt.Errorf("--docpath is mandatory")
	}

	if cmdName == "path" {
		return execPathParse(cmd, path, iterations)
	}

	code, ok := opmap[cmdName]
	if !ok {
		return fmt.Errorf("unknown command %q", cmdName)
	}
	if jsonFile == "" {
		return fmt.Errorf("operation must specify --json")
	}
	if mkdirP {
		code |= subdoc.CmdMkdirPFlag
	}
	return execOperation(cmd, code, cmdName, path, value, jsonFile, iterations)
}

// execPathParse repeatedly parses --docpath, mirroring
// subdoc-bench.cc's execPathParse loop over subdoc_path_parse.
func execPathParse(cmd *cobra.Command, path string, iterations uint64) error {
	start := time.Now()
	p := &subdoc.Path{}
	for i := uint64(0); i < iterations; i++ {
		p.Clear()
		if err := p.Parse(path); err != subdoc.Success {
			return fmt.Errorf("failed to parse path: %v", err)
		}
	}
	printStats(cmd, start, iterations)
	return nil
}

// execOperation loads the JSON file once and replays the operation
// --iterations times against a reusable Planner, mirroring
// subdoc-bench.cc's execOperation loop over subdoc_op_exec. incr/decr
// pack the --value text into the decimal delta subdoc-bench.cc's htonll
// dance achieved in C; here the delta is simply parsed and handed to
// Planner.Delta.
func execOperation(cmd *cobra.Command, code subdoc.Command, cmdName, path, value, jsonFile string, iterations uint64) error {
	doc, err := os.ReadFile(jsonFile)
	if err != nil {
		return fmt.Errorf("couldn't open file: %w", err)
	}

	var delta int64
	var valueBytes []byte
	switch cmdName {
	case "incr", "decr":
		d, perr := strconv.ParseInt(value, 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid delta for arithmetic operation: %w", perr)
		}
		if cmdName == "decr" {
			d = -d
		}
		delta = d
	default:
		valueBytes = []byte(value)
	}

	op := subdoc.NewPlanner()
	start := time.Now()
	for i := uint64(0); i < iterations; i++ {
		op.Clear()
		op.Code = code
		op.Doc = doc
		op.Value = valueBytes
		op.Delta = delta
		if serr := op.Exec(path); serr != subdoc.Success {
			return fmt.Errorf("operation failed: %v", serr)
		}
	}

	switch code.Base() {
	case subdoc.CmdGet, subdoc.CmdExists, subdoc.CmdGetCount:
		fmt.Fprintln(cmd.OutOrStdout(), string(op.MatchLoc.Bytes()))
	default:
		fmt.Fprintln(cmd.OutOrStdout(), string(op.NewDocument()))
	}
	printStats(cmd, start, iterations)
	return nil
}

func printStats(cmd *cobra.Command, start time.Time, iterations uint64) {
	elapsed := time.Since(start)
	seconds := elapsed.Seconds()
	var opsPerSec float64
	if seconds > 0 {
		opsPerSec = float64(iterations) / seconds
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "DURATION=%.2fs. OPS=%d\n", seconds, iterations)
	fmt.Fprintf(cmd.ErrOrStderr(), "%.2f OPS/s\n", opsPerSec)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
