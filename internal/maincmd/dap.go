package maincmd

import (
	"context"

	"github.com/caarlos0/env/v6"
	"github.com/mna/mainer"
	"github.com/mna/vitte/lang/dap"
)

// dapConfig is sourced from the environment rather than flags: the DAP
// server is normally launched by an editor extension, which configures it
// through the same launch.json -> env mechanism editors already use for
// other debug adapters.
type dapConfig struct {
	MaxSteps int `env:"VITTE_DAP_MAX_STEPS" envDefault:"0"`
}

func (c *Cmd) Dap(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var cfg dapConfig
	if err := env.Parse(&cfg); err != nil {
		return printError(stdio, err)
	}

	s := dap.NewServer(dap.NewMockEngine(), stdio.Stdout)
	s.MaxSteps = cfg.MaxSteps
	if err := s.Run(stdio.Stdin); err != nil {
		return printError(stdio, err)
	}
	return nil
}
