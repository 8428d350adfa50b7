// Package main defines the bridge node entrypoint: a server that tracks
// cross-chain transfers, collects validator attestations until quorum, and
// arbitrates challenges against misbehaving validators.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/thresholdlabs/threshbridge/bridge-node/flags"
	"github.com/thresholdlabs/threshbridge/bridge-node/node"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var log = logrus.WithField("prefix", "main")

var appFlags = []cli.Flag{
	flags.DataDirFlag,
	flags.VerbosityFlag,
	flags.LogFormatFlag,
	flags.ConfigFileFlag,
	flags.MinimalConfigFlag,
	flags.CommitRevealFlag,
	flags.ClearDBFlag,
	flags.RPCHost,
	flags.RPCPort,
	flags.MonitoringPortFlag,
	flags.OwnerFlag,
	flags.ArbitratorFlag,
}

func startNode(cliCtx *cli.Context) error {
	verbosity := cliCtx.String(flags.VerbosityFlag.Name)
	level, err := logrus.ParseLevel(verbosity)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	bridgeNode, err := node.NewBridgeNode(cliCtx)
	if err != nil {
		return err
	}
	bridgeNode.Start()
	return nil
}

func main() {
	app := cli.App{}
	app.Name = "bridge-node"
	app.Usage = "launches a threshold bridge node that escrows cross-chain transfers and releases them on validator quorum"
	app.Flags = appFlags
	app.Action = startNode
	app.Before = func(ctx *cli.Context) error {
		// Load any flags from file, if specified.
		if ctx.IsSet(flags.ConfigFileFlag.Name) {
			if err := altsrc.InitInputSourceWithContext(
				appFlags,
				altsrc.NewYamlSourceFromFlagFunc(
					flags.ConfigFileFlag.Name))(ctx); err != nil {
				return err
			}
		}

		format := ctx.String(flags.LogFormatFlag.Name)
		switch format {
		case "text":
			formatter := new(prefixed.TextFormatter)
			formatter.TimestampFormat = "2006-01-02 15:04:05"
			formatter.FullTimestamp = true
			logrus.SetFormatter(formatter)
		case "json":
			logrus.SetFormatter(&logrus.JSONFormatter{})
		default:
			return fmt.Errorf("unknown log format %s", format)
		}

		runtime.GOMAXPROCS(runtime.NumCPU())
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
