// Package rpc exposes the operator-facing JSON API of the bridge node:
// transaction, validator, and challenge lookups, fee quotes, and fund
// balances.
package rpc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/thresholdlabs/threshbridge/bridge/tokens"
	"github.com/thresholdlabs/threshbridge/bridge/types"
	"github.com/thresholdlabs/threshbridge/db/iface"
)

var log = logrus.WithField("prefix", "rpc")

// TransactionProvider is the transaction lookup surface consumed by the API.
type TransactionProvider interface {
	Transaction(nonce uint64) (*types.BridgeTransaction, error)
	Transactions() []*types.BridgeTransaction
	FeeQuote(amount, destChainID uint64) (uint64, error)
}

// ValidatorProvider is the validator lookup surface consumed by the API.
type ValidatorProvider interface {
	Validator(addr common.Address) (*types.Validator, error)
	ActiveValidators() []*types.Validator
	AllValidators() []*types.Validator
}

// ChallengeProvider is the challenge lookup surface consumed by the API.
type ChallengeProvider interface {
	Challenge(id uint64) (*types.Challenge, error)
	Challenges() []*types.Challenge
}

// Config options for the rpc service.
type Config struct {
	Host         string
	Port         string
	Transactions TransactionProvider
	Validators   ValidatorProvider
	Challenges   ChallengeProvider
	Ledger       tokens.Ledger
	Database     iface.Database
}

// Service serves the operator JSON API.
type Service struct {
	cfg        *Config
	server     *http.Server
	failStatus error
}

// NewService sets up the router and returns an rpc service ready to start.
func NewService(cfg *Config) *Service {
	s := &Service{cfg: cfg}

	router := mux.NewRouter()
	router.HandleFunc("/v1/transactions", s.listTransactionsHandler).Methods(http.MethodGet)
	router.HandleFunc("/v1/transactions/{nonce:[0-9]+}", s.transactionHandler).Methods(http.MethodGet)
	router.HandleFunc("/v1/validators", s.listValidatorsHandler).Methods(http.MethodGet)
	router.HandleFunc("/v1/validators/{address}", s.validatorHandler).Methods(http.MethodGet)
	router.HandleFunc("/v1/challenges", s.listChallengesHandler).Methods(http.MethodGet)
	router.HandleFunc("/v1/challenges/{id:[0-9]+}", s.challengeHandler).Methods(http.MethodGet)
	router.HandleFunc("/v1/fees/quote", s.feeQuoteHandler).Methods(http.MethodGet)
	router.HandleFunc("/v1/funds", s.fundsHandler).Methods(http.MethodGet)
	if cfg.Database != nil {
		router.HandleFunc("/v1/db/backup", s.backupHandler).Methods(http.MethodPost)
	}

	handler := cors.Default().Handler(router)
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler: handler,
	}
	return s
}

// Start the rpc service.
func (s *Service) Start() {
	log.WithField("endpoint", s.server.Addr).Info("Starting service")
	go func() {
		err := s.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Errorf("Could not listen to host:port %s: %v", s.server.Addr, err)
			s.failStatus = err
		}
	}()
}

// Stop the service gracefully.
func (s *Service) Stop() error {
	log.Info("Stopping service")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Status checks for any service failure conditions.
func (s *Service) Status() error {
	return s.failStatus
}
