// Copyright 2024 The Rustchain Authors
// This file is part of the Rustchain node.
//
// The Rustchain node is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The Rustchain node is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the Rustchain node. If not, see <http://www.gnu.org/licenses/>.

// This file is derived from cmd/kcn/main.go's app/command scaffolding,
// cut down to the three subcommands Proof of Antiquity actually needs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/Scottcjn/Rustchain-sub002/config"
	"github.com/Scottcjn/Rustchain-sub002/log"
	"github.com/Scottcjn/Rustchain-sub002/node"
)

var logger = log.NewModuleLogger(log.CLI)

var configFlag = cli.StringFlag{
	Name:  "config",
	Usage: "path to an optional TOML config file",
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "rustchaind"
	app.Usage = "Proof of Antiquity node"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{configFlag}
	app.Action = runAction
	app.Commands = []cli.Command{runCommand, backupCommand, settleCommand}
	sort.Sort(cli.CommandsByName(app.Commands))
	return app
}

var runCommand = cli.Command{
	Name:   "run",
	Usage:  "start the node and serve until interrupted",
	Flags:  []cli.Flag{configFlag},
	Action: runAction,
}

func runAction(ctx *cli.Context) error {
	cfg, err := config.Load(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}

	n, err := node.New(cfg)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	logger.Info("rustchaind starting", "node_id", cfg.NodeID, "listen", cfg.ListenAddr())
	return n.Run(runCtx)
}

var backupCommand = cli.Command{
	Name:  "backup",
	Usage: "snapshot the database and node keys to a directory",
	Flags: []cli.Flag{
		configFlag,
		cli.StringFlag{Name: "out", Usage: "destination directory"},
	},
	Action: func(ctx *cli.Context) error {
		out := ctx.String("out")
		if out == "" {
			return fmt.Errorf("backup: --out is required")
		}
		cfg, err := config.Load(ctx.String(configFlag.Name))
		if err != nil {
			return err
		}
		if err := node.Backup(cfg, out); err != nil {
			return err
		}
		color.Green("backup written to %s", out)
		return nil
	},
}

var settleCommand = cli.Command{
	Name:  "settle",
	Usage: "force-settle a single epoch, bypassing the worker's schedule",
	Flags: []cli.Flag{
		configFlag,
		cli.Int64Flag{Name: "epoch", Usage: "epoch number to settle"},
	},
	Action: func(ctx *cli.Context) error {
		cfg, err := config.Load(ctx.String(configFlag.Name))
		if err != nil {
			return err
		}
		n, err := node.New(cfg)
		if err != nil {
			return err
		}
		defer n.Stop()
		epochNum := ctx.Int64("epoch")
		if err := node.SettleEpoch(n, epochNum); err != nil {
			return err
		}
		color.Green("settled epoch %d", epochNum)
		return nil
	},
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Error("rustchaind exiting", "err", err)
		os.Exit(1)
	}
}
