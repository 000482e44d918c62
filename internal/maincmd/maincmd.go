// Package maincmd implements the vitte binary's command dispatch: flag
// parsing via github.com/mna/mainer, then reflection-based lookup of the
// Cmd method matching the requested subcommand.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "vitte"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<path>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<path>...] [-- <arg>...]
       %[1]s -h|--help
       %[1]s -v|--version

Bytecode toolchain for the vitte programming language.

The <command> can be one of:
       disasm <file>              Disassemble a compact (.chnk) or sectioned
                                   (.vitbc) chunk file, printing a full
                                   listing by default.
       link <file>...             Link one or more chunk files into a single
                                   output chunk, deduplicating constants by
                                   default.
       dap                        Run the Debug Adapter Protocol server over
                                   stdin/stdout, against the built-in mock
                                   engine.

Valid flag options are:
       -h --help                  Show this help and exit.
       -v --version               Print version and exit.

Valid flag options for the <disasm> command are:
       --json                     Print the machine-readable JSON view
                                   instead of the textual listing.

Valid flag options for the <link> command are:
       --out <file>               Output file path (required).
       --strip                    Strip debug info from the output.
       --no-dedup                 Disable cross-input constant deduplication.
       --entry <name>             Validate that a debug symbol named <name>
                                   is present in at least one input (not
                                   checked together with --strip).

More information on the %[1]s toolchain:
       https://github.com/mna/vitte
`, binName)
)

// Cmd is the flag-decoded CLI invocation, dispatched to one of its own
// methods (Disasm, Link, Dap) by name via buildCmds.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	JSON    bool   `flag:"json"`
	Out     string `flag:"out"`
	Strip   bool   `flag:"strip"`
	NoDedup bool   `flag:"no-dedup"`
	Entry   string `flag:"entry"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]

	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", c.args[0])
	}

	if cmdName == "disasm" && len(c.args[1:]) != 1 {
		return errors.New("disasm: exactly one file must be provided")
	}

	if cmdName == "link" {
		if len(c.args[1:]) == 0 {
			return errors.New("link: at least one input file must be provided")
		}
		if c.Out == "" {
			return errors.New("link: --out is required")
		}
	}

	if c.flags["json"] && cmdName != "disasm" {
		return fmt.Errorf("%s: invalid flag '--json'", cmdName)
	}
	if (c.flags["out"] || c.flags["strip"] || c.flags["no-dedup"] || c.flags["entry"]) && cmdName != "link" {
		return fmt.Errorf("%s: invalid flag for this command", cmdName)
	}

	return nil
}

func printError(stdio mainer.Stdio, err error) error {
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
	}
	return err
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: strings.ToUpper(binName) + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		// each command takes care of printing its errors, just return with an error code
		return mainer.Failure
	}
	return mainer.Success
}

// valid commands are those that take a context.Context, a mainer.Stdio and a
// slice of strings as input, and return an error as output.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		// must take 4 parameters (including receiver) and return 1
		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}

		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
