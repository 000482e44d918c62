package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/vitte/lang/bytecode"
	"github.com/mna/vitte/lang/linker"
)

func (c *Cmd) Link(ctx context.Context, stdio mainer.Stdio, args []string) error {
	inputs := make([]linker.Input, len(args))
	for i, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return printError(stdio, err)
		}
		chunk, err := bytecode.Decode(data)
		if err != nil {
			return printError(stdio, fmt.Errorf("%s: %w", path, err))
		}
		inputs[i] = linker.Input{Name: path, Chunk: chunk}
	}

	opts := linker.Options{
		DedupConsts: !c.NoDedup,
		Strip:       c.Strip,
		MergeDebug:  !c.Strip,
		Entry:       c.Entry,
	}

	merged, manifest, err := linker.Link(inputs, opts)
	if err != nil {
		return printError(stdio, err)
	}

	if err := os.WriteFile(c.Out, bytecode.EncodeChunk(merged), 0o644); err != nil {
		return printError(stdio, err)
	}

	fmt.Fprintf(stdio.Stdout, "linked %d input(s) into %s: %d consts before, %d after, hash=%016x\n",
		len(inputs), c.Out, manifest.TotalConstsBefore, manifest.TotalConstsAfter, manifest.Hash)
	return nil
}
