// SPDX-License-Identifier: GPL-3.0-or-later

// Command ooniqa runs OONI probes under jafar-emulated censorship
// and checks the resulting measurements.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rbmk-project/ooniqa/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ooniqa: %s\n", err.Error())
		stop()
		os.Exit(1)
	}
}
