// Copyright 2025 Commune Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/communehq/membersearch"
	"github.com/communehq/membersearch/config"
	"github.com/communehq/membersearch/core"
	"github.com/communehq/membersearch/query"
)

func main() {
	app := &cli.App{
		Name:  "membersearch",
		Usage: "Natural-language member directory search for community chat channels",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "Run one query against a tenant's directory",
				ArgsUsage: "<query text>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "tenant",
						Aliases:  []string{"t"},
						Usage:    "Tenant (community) identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "User identifier for session and rate limits",
						Value: "cli",
					},
				},
			},
			{
				Name:   "chat",
				Usage:  "Interactive session against a tenant's directory",
				Action: chatCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "tenant",
						Aliases:  []string{"t"},
						Usage:    "Tenant (community) identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "User identifier for session and rate limits",
						Value: "cli",
					},
				},
			},
			{
				Name:   "invalidate",
				Usage:  "Drop a tenant's cached responses after member data changes",
				Action: invalidateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "tenant",
						Aliases:  []string{"t"},
						Usage:    "Tenant (community) identifier",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openService(c *cli.Context) (*membersearch.Service, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	svc, err := membersearch.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start service: %w", err)
	}
	return svc, nil
}

func askCommand(c *cli.Context) error {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return fmt.Errorf("query text is required")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	resp, err := svc.HandleMessage(context.Background(), core.TenantID(c.String("tenant")), c.String("user"), text)
	if err != nil {
		if query.IsUserFacing(err) {
			fmt.Println(query.FormatError(err))
			return nil
		}
		return err
	}
	fmt.Println(resp.Text)
	return nil
}

func chatCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	tenant := core.TenantID(c.String("tenant"))
	user := c.String("user")

	fmt.Println("membersearch chat. Empty line exits.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		resp, err := svc.HandleMessage(context.Background(), tenant, user, line)
		if err != nil {
			fmt.Println(query.FormatError(err))
			continue
		}
		fmt.Println(resp.Text)
	}
	return scanner.Err()
}

func invalidateCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	tenant := core.TenantID(c.String("tenant"))
	if err := svc.InvalidateTenant(context.Background(), tenant); err != nil {
		return fmt.Errorf("failed to invalidate tenant: %w", err)
	}
	fmt.Printf("Invalidated cached responses for tenant %s\n", tenant)
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
