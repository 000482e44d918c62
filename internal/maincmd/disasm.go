package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/vitte/lang/bytecode"
	"github.com/mna/vitte/lang/disasm"
)

func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return printError(stdio, err)
	}

	chunk, err := bytecode.Decode(data)
	if err != nil {
		return printError(stdio, fmt.Errorf("%s: %w", path, err))
	}

	if c.JSON {
		out, err := disasm.JSON(chunk, path)
		if err != nil {
			return printError(stdio, err)
		}
		fmt.Fprintln(stdio.Stdout, string(out))
		return nil
	}

	fmt.Fprint(stdio.Stdout, disasm.FullListing(chunk, path))
	return nil
}
