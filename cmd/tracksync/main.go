package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tracksync/tracksync/internal/pkg/logs"
)

func main() {
	cmd := &cli.Command{
		Name:  "tracksync",
		Usage: "Keep support tickets and tracked time in sync",
		Commands: []*cli.Command{
			serveHwd.cmd(),
			scheduleHwd.cmd(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logs.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}
