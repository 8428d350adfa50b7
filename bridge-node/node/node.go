// Package node assembles the bridge node: database, token ledger, validator
// registry, attestation ledger, transaction and challenge services, the
// operator API, and the monitoring endpoint. It handles the lifecycle of the
// entire system and registers services to a service registry.
package node

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/thresholdlabs/threshbridge/bridge-node/flags"
	"github.com/thresholdlabs/threshbridge/bridge/attestations"
	"github.com/thresholdlabs/threshbridge/bridge/challenges"
	"github.com/thresholdlabs/threshbridge/bridge/tokens"
	"github.com/thresholdlabs/threshbridge/bridge/transactions"
	"github.com/thresholdlabs/threshbridge/bridge/validators"
	"github.com/thresholdlabs/threshbridge/db"
	"github.com/thresholdlabs/threshbridge/db/kv"
	"github.com/thresholdlabs/threshbridge/rpc"
	"github.com/thresholdlabs/threshbridge/shared"
	"github.com/thresholdlabs/threshbridge/shared/params"
	"github.com/thresholdlabs/threshbridge/shared/prometheus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "node")

// BridgeNode holds every running service of a bridge node.
type BridgeNode struct {
	cliCtx   *cli.Context
	ctx      context.Context
	cancel   context.CancelFunc
	lock     sync.RWMutex
	services *shared.ServiceRegistry
	stop     chan struct{} // Channel to wait for termination notifications.
	db       db.Database
}

// NewBridgeNode creates a new node instance, sets up configuration options,
// and registers every required service.
func NewBridgeNode(cliCtx *cli.Context) (*BridgeNode, error) {
	if cliCtx.Bool(flags.MinimalConfigFlag.Name) {
		log.WithField("config", "minimal-spec").Info("Using custom chain parameters")
		params.UseMinimalConfig()
	}
	if cliCtx.Bool(flags.CommitRevealFlag.Name) {
		cfg := *params.BridgeConfig()
		cfg.CommitRevealEnabled = true
		params.OverrideBridgeConfig(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	node := &BridgeNode{
		cliCtx:   cliCtx,
		ctx:      ctx,
		cancel:   cancel,
		services: shared.NewServiceRegistry(),
		stop:     make(chan struct{}),
	}

	if err := node.startDB(); err != nil {
		cancel()
		return nil, err
	}

	owner, err := addressFlag(cliCtx, flags.OwnerFlag.Name)
	if err != nil {
		cancel()
		return nil, err
	}
	arbitrator := owner
	if cliCtx.IsSet(flags.ArbitratorFlag.Name) {
		arbitrator, err = addressFlag(cliCtx, flags.ArbitratorFlag.Name)
		if err != nil {
			cancel()
			return nil, err
		}
	}

	ledger := tokens.NewInMemoryLedger()
	if cliCtx.Bool(flags.MinimalConfigFlag.Name) {
		// Local development runs against the in-memory ledger, so give the
		// owner a genesis balance to fund validators and transfers from.
		ledger.Mint(owner, params.BridgeConfig().MaxTransferAmount)
	}

	registry, err := validators.NewRegistry(ctx, &validators.Config{
		Owner:    owner,
		Ledger:   ledger,
		Database: node.db,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	attLedger, err := attestations.NewLedger(ctx, node.db)
	if err != nil {
		cancel()
		return nil, err
	}

	txService, err := transactions.NewService(ctx, &transactions.Config{
		Ledger:       ledger,
		Registry:     registry,
		Attestations: attLedger,
		Strategy:     attestations.NewStrategy(nil),
		Database:     node.db,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	if err := node.services.RegisterService(txService); err != nil {
		cancel()
		return nil, err
	}

	challengeService, err := challenges.NewService(ctx, &challenges.Config{
		Arbitrator:   arbitrator,
		Ledger:       ledger,
		Registry:     registry,
		Transactions: txService,
		Database:     node.db,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	rpcService := rpc.NewService(&rpc.Config{
		Host:         cliCtx.String(flags.RPCHost.Name),
		Port:         cliCtx.String(flags.RPCPort.Name),
		Transactions: txService,
		Validators:   registry,
		Challenges:   challengeService,
		Ledger:       ledger,
		Database:     node.db,
	})
	if err := node.services.RegisterService(rpcService); err != nil {
		cancel()
		return nil, err
	}

	monitoringAddr := ":" + cliCtx.String(flags.MonitoringPortFlag.Name)
	if err := node.services.RegisterService(prometheus.NewService(monitoringAddr, node.services)); err != nil {
		cancel()
		return nil, err
	}

	return node, nil
}

func (n *BridgeNode) startDB() error {
	dataDir := n.cliCtx.String(flags.DataDirFlag.Name)
	d, err := db.NewDB(dataDir, &kv.Config{})
	if err != nil {
		return err
	}
	if n.cliCtx.Bool(flags.ClearDBFlag.Name) {
		if err := d.ClearDB(); err != nil {
			return err
		}
		d, err = db.NewDB(dataDir, &kv.Config{})
		if err != nil {
			return err
		}
	}
	log.WithField("path", d.DatabasePath()).Info("Checking db")
	n.db = d
	return nil
}

func addressFlag(cliCtx *cli.Context, name string) (common.Address, error) {
	raw := cliCtx.String(name)
	if raw == "" {
		return common.Address{}, fmt.Errorf("flag --%s is required", name)
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("flag --%s: invalid hex address %q", name, raw)
	}
	return common.HexToAddress(raw), nil
}

// Start the bridge node and kick off every registered service.
func (n *BridgeNode) Start() {
	n.lock.Lock()
	n.services.StartAll()
	n.lock.Unlock()

	stop := n.stop
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		<-sigc
		log.Info("Got interrupt, shutting down...")
		go n.Close()
		for i := 10; i > 0; i-- {
			<-sigc
			if i > 1 {
				log.WithField("times", i-1).Info("Already shutting down, interrupt more to panic")
			}
		}
		panic("Panic closing the bridge node")
	}()

	// Wait for stop channel to be closed.
	<-stop
}

// Close handles graceful shutdown of the system.
func (n *BridgeNode) Close() {
	n.lock.Lock()
	defer n.lock.Unlock()

	log.Info("Stopping bridge node")
	n.services.StopAll()
	if err := n.db.Close(); err != nil {
		log.Errorf("Failed to close database: %v", err)
	}
	n.cancel()
	close(n.stop)
}
