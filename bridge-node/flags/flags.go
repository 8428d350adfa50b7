// Package flags defines the command-line flags of the bridge node.
package flags

import (
	"github.com/urfave/cli/v2"
)

var (
	// DataDirFlag defines a path on disk where the node database is stored.
	DataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the databases",
		Value: "./threshbridge-data",
	}
	// VerbosityFlag defines the logrus configuration.
	VerbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info=default, warn, error, fatal, panic)",
		Value: "info",
	}
	// LogFormatFlag specifies the log output format.
	LogFormatFlag = &cli.StringFlag{
		Name:  "log-format",
		Usage: "Specify log formatting. Supports: text, json",
		Value: "text",
	}
	// ConfigFileFlag specifies the filepath to load flag values.
	ConfigFileFlag = &cli.StringFlag{
		Name:  "config-file",
		Usage: "The filepath to a yaml file with flag values",
	}
	// MinimalConfigFlag enables the minimal chain configuration.
	MinimalConfigFlag = &cli.BoolFlag{
		Name:  "minimal-config",
		Usage: "Use minimal bridge parameters, suitable for local development",
	}
	// CommitRevealFlag selects the two-phase attestation strategy.
	CommitRevealFlag = &cli.BoolFlag{
		Name:  "commit-reveal",
		Usage: "Require commit-reveal attestations instead of direct signatures",
	}
	// ClearDBFlag clears any previously stored data at the data directory.
	ClearDBFlag = &cli.BoolFlag{
		Name:  "clear-db",
		Usage: "Clears any previously stored data at the data directory",
	}
	// RPCHost defines the host on which the RPC server should listen.
	RPCHost = &cli.StringFlag{
		Name:  "rpc-host",
		Usage: "Host on which the RPC server should listen",
		Value: "127.0.0.1",
	}
	// RPCPort defines the port on which the RPC server should listen.
	RPCPort = &cli.StringFlag{
		Name:  "rpc-port",
		Usage: "Port on which the RPC server should listen",
		Value: "4500",
	}
	// MonitoringPortFlag defines the port used by the prometheus service.
	MonitoringPortFlag = &cli.StringFlag{
		Name:  "monitoring-port",
		Usage: "Port used by the prometheus service",
		Value: "8081",
	}
	// OwnerFlag is the address allowed to manage the validator set.
	OwnerFlag = &cli.StringFlag{
		Name:  "owner",
		Usage: "Hex address allowed to add and remove validators",
	}
	// ArbitratorFlag is the address allowed to rule on challenges.
	ArbitratorFlag = &cli.StringFlag{
		Name:  "arbitrator",
		Usage: "Hex address allowed to resolve challenges (defaults to the owner)",
	}
)
