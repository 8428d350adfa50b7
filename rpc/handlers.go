package rpc

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/thresholdlabs/threshbridge/bridge/tokens"
	"github.com/thresholdlabs/threshbridge/bridge/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Could not encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeError maps the bridge error taxonomy onto HTTP statuses so operator
// tooling can distinguish retry-later from never-succeeds.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Error: err.Error()}
	if kind, ok := types.ErrorKind(err); ok {
		resp.Kind = kind.String()
		switch kind {
		case types.Validation:
			status = http.StatusBadRequest
		case types.Authorization:
			status = http.StatusForbidden
		case types.State:
			status = http.StatusConflict
		case types.Economic:
			status = http.StatusPaymentRequired
		}
	}
	writeJSON(w, status, resp)
}

func (s *Service) transactionHandler(w http.ResponseWriter, r *http.Request) {
	nonce, err := strconv.ParseUint(mux.Vars(r)["nonce"], 10, 64)
	if err != nil {
		writeError(w, types.ErrUnknownTransaction)
		return
	}
	tx, err := s.cfg.Transactions.Transaction(nonce)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Service) listTransactionsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Transactions.Transactions())
}

func (s *Service) validatorHandler(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["address"]
	if !common.IsHexAddress(raw) {
		writeError(w, types.ErrInvalidAddress)
		return
	}
	v, err := s.cfg.Validators.Validator(common.HexToAddress(raw))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Service) listValidatorsHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("active") == "true" {
		writeJSON(w, http.StatusOK, s.cfg.Validators.ActiveValidators())
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.Validators.AllValidators())
}

func (s *Service) challengeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, types.ErrUnknownChallenge)
		return
	}
	c, err := s.cfg.Challenges.Challenge(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Service) listChallengesHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Challenges.Challenges())
}

type feeQuoteResponse struct {
	Amount      uint64 `json:"amount"`
	DestChainID uint64 `json:"dest_chain_id"`
	Fee         uint64 `json:"fee"`
	Total       uint64 `json:"total"`
}

func (s *Service) feeQuoteHandler(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseUint(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		writeError(w, types.ErrZeroAmount)
		return
	}
	chain, err := strconv.ParseUint(r.URL.Query().Get("chain"), 10, 64)
	if err != nil {
		writeError(w, types.ErrUnsupportedChain)
		return
	}
	fee, err := s.cfg.Transactions.FeeQuote(amount, chain)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feeQuoteResponse{
		Amount:      amount,
		DestChainID: chain,
		Fee:         fee,
		Total:       amount + fee,
	})
}

type fundsResponse struct {
	Escrow             uint64 `json:"escrow"`
	StakeVault         uint64 `json:"stake_vault"`
	ChallengeVault     uint64 `json:"challenge_vault"`
	InsuranceFund      uint64 `json:"insurance_fund"`
	FeePool            uint64 `json:"fee_pool"`
	DestinationReserve uint64 `json:"destination_reserve"`
}

// backupHandler writes a timestamped copy of the database to the data
// directory's backup folder.
func (s *Service) backupHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Database.Backup(r.Context()); err != nil {
		log.WithError(err).Error("Could not back up database")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "backup written"})
}

func (s *Service) fundsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, fundsResponse{
		Escrow:             s.cfg.Ledger.BalanceOf(tokens.BridgeEscrow),
		StakeVault:         s.cfg.Ledger.BalanceOf(tokens.StakeVault),
		ChallengeVault:     s.cfg.Ledger.BalanceOf(tokens.ChallengeVault),
		InsuranceFund:      s.cfg.Ledger.BalanceOf(tokens.InsuranceFund),
		FeePool:            s.cfg.Ledger.BalanceOf(tokens.FeePool),
		DestinationReserve: s.cfg.Ledger.BalanceOf(tokens.DestinationReserve),
	})
}
