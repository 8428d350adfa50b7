package rpc

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thresholdlabs/threshbridge/bridge/tokens"
	"github.com/thresholdlabs/threshbridge/bridge/transactions"
	"github.com/thresholdlabs/threshbridge/bridge/types"
	"github.com/thresholdlabs/threshbridge/db/kv"
	"github.com/thresholdlabs/threshbridge/shared/params"
)

var (
	user = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	val1 = common.HexToAddress("0x0000000000000000000000000000000000000001")
)

type fakeTxProvider struct {
	txs map[uint64]*types.BridgeTransaction
}

func (f *fakeTxProvider) Transaction(nonce uint64) (*types.BridgeTransaction, error) {
	tx, ok := f.txs[nonce]
	if !ok {
		return nil, types.ErrUnknownTransaction
	}
	return tx, nil
}

func (f *fakeTxProvider) Transactions() []*types.BridgeTransaction {
	out := make([]*types.BridgeTransaction, 0, len(f.txs))
	for _, tx := range f.txs {
		out = append(out, tx)
	}
	return out
}

func (f *fakeTxProvider) FeeQuote(amount, destChainID uint64) (uint64, error) {
	if !params.BridgeConfig().ChainSupported(destChainID) {
		return 0, types.ErrUnsupportedChain
	}
	return transactions.Fee(amount, destChainID)
}

type fakeValProvider struct {
	vals map[common.Address]*types.Validator
}

func (f *fakeValProvider) Validator(addr common.Address) (*types.Validator, error) {
	v, ok := f.vals[addr]
	if !ok {
		return nil, types.ErrNotRegistered
	}
	return v, nil
}

func (f *fakeValProvider) ActiveValidators() []*types.Validator {
	var out []*types.Validator
	for _, v := range f.vals {
		if v.IsActive {
			out = append(out, v)
		}
	}
	return out
}

func (f *fakeValProvider) AllValidators() []*types.Validator {
	var out []*types.Validator
	for _, v := range f.vals {
		out = append(out, v)
	}
	return out
}

type fakeChallengeProvider struct {
	challenges map[uint64]*types.Challenge
}

func (f *fakeChallengeProvider) Challenge(id uint64) (*types.Challenge, error) {
	c, ok := f.challenges[id]
	if !ok {
		return nil, types.ErrUnknownChallenge
	}
	return c, nil
}

func (f *fakeChallengeProvider) Challenges() []*types.Challenge {
	var out []*types.Challenge
	for _, c := range f.challenges {
		out = append(out, c)
	}
	return out
}

func setupService(t *testing.T) *Service {
	t.Helper()
	ledger := tokens.NewInMemoryLedger()
	ledger.Mint(tokens.BridgeEscrow, 500)
	ledger.Mint(tokens.InsuranceFund, 42)

	store, err := kv.NewKVStore(t.TempDir(), &kv.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	return NewService(&Config{
		Host: "127.0.0.1",
		Port: "0",
		Transactions: &fakeTxProvider{txs: map[uint64]*types.BridgeTransaction{
			1: {Nonce: 1, User: user, Amount: 500, Status: types.Pending},
		}},
		Validators: &fakeValProvider{vals: map[common.Address]*types.Validator{
			val1: {Address: val1, Stake: 1000, Reputation: 500, IsActive: true},
		}},
		Challenges: &fakeChallengeProvider{challenges: map[uint64]*types.Challenge{
			3: {ID: 3, Validator: val1, TxNonce: 1, Stake: 100},
		}},
		Ledger:   ledger,
		Database: store,
	})
}

func doRequest(t *testing.T, s *Service, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestGetTransaction(t *testing.T) {
	s := setupService(t)

	rec := doRequest(t, s, "/v1/transactions/1")
	require.Equal(t, http.StatusOK, rec.Code)

	var tx types.BridgeTransaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tx))
	assert.Equal(t, uint64(1), tx.Nonce)
	assert.Equal(t, user, tx.User)
}

func TestGetTransactionUnknownNonce(t *testing.T) {
	s := setupService(t)

	rec := doRequest(t, s, "/v1/transactions/99")
	assert.Equal(t, http.StatusConflict, rec.Code, "state errors map to 409")

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "state", resp.Kind)
}

func TestListTransactions(t *testing.T) {
	s := setupService(t)

	rec := doRequest(t, s, "/v1/transactions")
	require.Equal(t, http.StatusOK, rec.Code)

	var txs []*types.BridgeTransaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txs))
	assert.Len(t, txs, 1)
}

func TestGetValidator(t *testing.T) {
	s := setupService(t)

	rec := doRequest(t, s, "/v1/validators/"+val1.Hex())
	require.Equal(t, http.StatusOK, rec.Code)

	var v types.Validator
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, val1, v.Address)

	rec = doRequest(t, s, "/v1/validators/nothex")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "validation errors map to 400")
}

func TestListValidatorsActiveFilter(t *testing.T) {
	s := setupService(t)

	rec := doRequest(t, s, "/v1/validators?active=true")
	require.Equal(t, http.StatusOK, rec.Code)

	var vals []*types.Validator
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vals))
	require.Len(t, vals, 1)
	assert.True(t, vals[0].IsActive)
}

func TestGetChallenge(t *testing.T) {
	s := setupService(t)

	rec := doRequest(t, s, "/v1/challenges/3")
	require.Equal(t, http.StatusOK, rec.Code)

	var c types.Challenge
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, uint64(3), c.ID)

	rec = doRequest(t, s, "/v1/challenges/4")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFeeQuoteEndpoint(t *testing.T) {
	prev := params.BridgeConfig()
	defer params.OverrideBridgeConfig(prev)
	params.UseMinimalConfig()

	s := setupService(t)
	rec := doRequest(t, s, "/v1/fees/quote?amount=10000&chain=137")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp feeQuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	want, err := transactions.Fee(10000, 137)
	require.NoError(t, err)
	assert.Equal(t, want, resp.Fee)
	assert.Equal(t, resp.Amount+resp.Fee, resp.Total)

	rec = doRequest(t, s, "/v1/fees/quote?amount=10000&chain=999")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, "/v1/fees/quote?amount=notanumber&chain=137")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackupEndpoint(t *testing.T) {
	s := setupService(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/db/backup", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Backups are not served over GET.
	rec = doRequest(t, s, "/v1/db/backup")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestFundsEndpoint(t *testing.T) {
	s := setupService(t)

	rec := doRequest(t, s, "/v1/funds")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp fundsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(500), resp.Escrow)
	assert.Equal(t, uint64(42), resp.InsuranceFund)
	assert.Equal(t, uint64(0), resp.FeePool)
}
