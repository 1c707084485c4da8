// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/challenge/cmd/app/commands"
)

var version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    "challenge",
		Usage:   "Challenge token lifecycle service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "create-shared-secret",
				Usage: "Generate a random shared secret suitable for CHALLENGE_SHARED_SECRET",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateSharedSecret(commands.DefaultIO())
				},
			},
			{
				Name:      "decrypt-token",
				Usage:     "Decrypt a bearer token envelope and print its payload",
				ArgsUsage: "<token>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunDecryptToken(commands.DefaultIO(), cmd.Args().First())
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
