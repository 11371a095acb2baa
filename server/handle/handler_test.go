package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/inscription-c/insc-testbed/inscription"
	"github.com/inscription-c/insc-testbed/server/handle/api"
	"github.com/inscription-c/insc-testbed/testbed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorkflow struct {
	state testbed.State
	txs   []testbed.Transaction

	initErr     error
	balance     *uint256.Int
	balanceErr  error
	funding     *testbed.FundingResult
	fundErr     error
	height      int64
	mineErr     error
	tx          *testbed.Transaction
	inscribeErr error

	balanceAddress string
	fundAddress    string
	inscribed      []inscription.Request
}

func (f *fakeWorkflow) Initialize(ctx context.Context) error { return f.initErr }

func (f *fakeWorkflow) FetchBalance(ctx context.Context, address string) (*uint256.Int, error) {
	f.balanceAddress = address
	if address == "" {
		return nil, nil
	}
	return f.balance, f.balanceErr
}

func (f *fakeWorkflow) RequestFunding(ctx context.Context, address string) (*testbed.FundingResult, error) {
	f.fundAddress = address
	return f.funding, f.fundErr
}

func (f *fakeWorkflow) MineBlock(ctx context.Context) (int64, error) { return f.height, f.mineErr }

func (f *fakeWorkflow) SubmitInscription(ctx context.Context, req inscription.Request) (*testbed.Transaction, error) {
	f.inscribed = append(f.inscribed, req)
	return f.tx, f.inscribeErr
}

func (f *fakeWorkflow) Snapshot() testbed.State { return f.state }
func (f *fakeWorkflow) Transactions() []testbed.Transaction { return f.txs }
func (f *fakeWorkflow) Address() string { return f.state.Address }

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHandler(t *testing.T, w Workflow) *Handler {
	t.Helper()
	h, err := New(WithWorkflow(w), WithPrometheus(true))
	require.NoError(t, err)
	return h
}

type testResp struct {
	ErrNo  api.Code        `json:"err_no"`
	ErrMsg string          `json:"err_msg"`
	Data   json.RawMessage `json:"data"`
}

func do(t *testing.T, h *Handler, method, path, body string) (*httptest.ResponseRecorder, testResp) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.Engine().ServeHTTP(rec, req)
	var resp testResp
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestNewRequiresWorkflow(t *testing.T) {
	_, err := New()
	assert.Error(t, err)
}

func TestState(t *testing.T) {
	w := &fakeWorkflow{state: testbed.State{
		Session:     testbed.Ready,
		Address:     "addr1",
		Balance:     uint256.NewInt(100_000_000),
		BlockHeight: 101,
	}}
	h := newTestHandler(t, w)

	rec, resp := do(t, h, http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, api.CodeSuccess, resp.ErrNo)

	var view testbed.StateView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, "ready", view.Session)
	assert.Equal(t, "addr1", view.Address)
	require.NotNil(t, view.Balance)
	assert.Equal(t, uint64(100_000_000), *view.Balance)
	assert.Equal(t, int64(101), view.BlockHeight)
}

func TestContentTypes(t *testing.T) {
	h := newTestHandler(t, &fakeWorkflow{})
	rec, resp := do(t, h, http.MethodGet, "/content-types", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var types []inscription.Type
	require.NoError(t, json.Unmarshal(resp.Data, &types))
	require.Len(t, types, 2)
	assert.Equal(t, "text", types[0].Value)
	assert.Equal(t, "application/json;charset=utf-8", string(types[1].ContentType))
}

func TestBalanceDefaultsToDepositAddress(t *testing.T) {
	w := &fakeWorkflow{
		state:   testbed.State{Address: "addr1"},
		balance: uint256.NewInt(42),
	}
	h := newTestHandler(t, w)

	rec, resp := do(t, h, http.MethodPost, "/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "addr1", w.balanceAddress)
	assert.Contains(t, string(resp.Data), `"balance":"42"`)

	rec, _ = do(t, h, http.MethodPost, "/balance", `{"address":"other"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "other", w.balanceAddress)
}

func TestBalanceWithoutAddress(t *testing.T) {
	h := newTestHandler(t, &fakeWorkflow{})
	rec, resp := do(t, h, http.MethodPost, "/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(resp.Data), `"balance":null`)
}

func TestBalanceInFlight(t *testing.T) {
	w := &fakeWorkflow{
		state:      testbed.State{Address: "addr1"},
		balanceErr: &testbed.StepError{Step: testbed.StepBalance, Err: testbed.ErrInFlight},
	}
	h := newTestHandler(t, w)

	rec, resp := do(t, h, http.MethodPost, "/balance", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, api.CodeInFlight, resp.ErrNo)
	assert.Contains(t, string(resp.Data), `"step":"balance"`)
}

func TestBalanceBadBody(t *testing.T) {
	h := newTestHandler(t, &fakeWorkflow{})
	rec, resp := do(t, h, http.MethodPost, "/balance", `{"address":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, api.CodeParamsInvalid, resp.ErrNo)
}

func TestFund(t *testing.T) {
	w := &fakeWorkflow{
		state: testbed.State{Address: "addr1"},
		funding: &testbed.FundingResult{
			Address:     "addr1",
			TxID:        "tx1",
			BlockHeight: 101,
			Balance:     uint256.NewInt(100_000_000),
		},
	}
	h := newTestHandler(t, w)

	rec, resp := do(t, h, http.MethodPost, "/fund", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "addr1", w.fundAddress)
	assert.Contains(t, string(resp.Data), `"txid":"tx1"`)
	assert.Contains(t, string(resp.Data), `"balance":"100000000"`)
}

func TestFundMiningFails(t *testing.T) {
	w := &fakeWorkflow{
		state:   testbed.State{Address: "addr1"},
		funding: &testbed.FundingResult{Address: "addr1", TxID: "tx1"},
		fundErr: &testbed.StepError{Step: testbed.StepMining, Err: assert.AnError},
	}
	h := newTestHandler(t, w)

	rec, resp := do(t, h, http.MethodPost, "/fund", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, api.CodeUpstreamError, resp.ErrNo)
	assert.Contains(t, string(resp.Data), `"step":"mining"`)
	assert.Contains(t, string(resp.Data), `"txid":"tx1"`)
}

func TestFundWithoutAddress(t *testing.T) {
	w := &fakeWorkflow{
		fundErr: &testbed.StepError{Step: testbed.StepFunding, Err: testbed.ErrNoAddress},
	}
	h := newTestHandler(t, w)
	rec, resp := do(t, h, http.MethodPost, "/fund", "")
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, api.CodeNotReady, resp.ErrNo)
}

func TestMine(t *testing.T) {
	w := &fakeWorkflow{height: 102}
	h := newTestHandler(t, w)
	rec, resp := do(t, h, http.MethodPost, "/mine", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(resp.Data), `"block_height":102`)
}

func TestInscribe(t *testing.T) {
	tests := []struct {
		name string
		body string
		want inscription.Kind
	}{
		{"index", `{"content_type":1,"content":"{\"a\":1}"}`, inscription.KindJson},
		{"value", `{"content_type":"json","content":"{\"a\":1}"}`, inscription.KindJson},
		{"numeric string", `{"content_type":"0","content":"hi"}`, inscription.KindText},
		{"missing", `{"content":"hi"}`, inscription.KindText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWorkflow{tx: &testbed.Transaction{CommitTxID: "c", RevealTxID: "r"}}
			h := newTestHandler(t, w)
			rec, resp := do(t, h, http.MethodPost, "/inscribe", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			require.Len(t, w.inscribed, 1)
			assert.Equal(t, tt.want, w.inscribed[0].ContentType)
			assert.Contains(t, string(resp.Data), `"reveal_txid":"r"`)
		})
	}
}

func TestInscribeContentUnmodified(t *testing.T) {
	w := &fakeWorkflow{tx: &testbed.Transaction{}}
	h := newTestHandler(t, w)
	rec, _ := do(t, h, http.MethodPost, "/inscribe", `{"content_type":"json","content":"{\"a\":1}","recipient":"bcrt1qdest"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"a":1}`, w.inscribed[0].Content)
	assert.Equal(t, "bcrt1qdest", w.inscribed[0].Recipient)
}

func TestInscribeUnknownType(t *testing.T) {
	for _, body := range []string{
		`{"content_type":7,"content":"x"}`,
		`{"content_type":"image","content":"x"}`,
		`{"content_type":1.5,"content":"x"}`,
		`{"content_type":true,"content":"x"}`,
	} {
		w := &fakeWorkflow{}
		h := newTestHandler(t, w)
		rec, resp := do(t, h, http.MethodPost, "/inscribe", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, api.CodeParamsInvalid, resp.ErrNo, body)
		assert.Empty(t, w.inscribed, body)
	}
}

func TestInscribeInFlight(t *testing.T) {
	w := &fakeWorkflow{inscribeErr: &testbed.StepError{Step: testbed.StepInscribe, Err: testbed.ErrInFlight}}
	h := newTestHandler(t, w)
	rec, resp := do(t, h, http.MethodPost, "/inscribe", `{"content":"x"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, api.CodeInFlight, resp.ErrNo)
}

func TestInscribeMiningFailsKeepsTransaction(t *testing.T) {
	w := &fakeWorkflow{
		tx:          &testbed.Transaction{CommitTxID: "c", RevealTxID: "r"},
		inscribeErr: &testbed.StepError{Step: testbed.StepMining, Err: assert.AnError},
	}
	h := newTestHandler(t, w)
	rec, resp := do(t, h, http.MethodPost, "/inscribe", `{"content":"x"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, string(resp.Data), `"reveal_txid":"r"`)
}

func TestInit(t *testing.T) {
	w := &fakeWorkflow{initErr: &testbed.StepError{Step: testbed.StepSignerAddress, Err: assert.AnError}}
	h := newTestHandler(t, w)
	rec, resp := do(t, h, http.MethodPost, "/init", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, string(resp.Data), `"step":"signer_address"`)

	w.initErr = nil
	rec, _ = do(t, h, http.MethodPost, "/init", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTransactions(t *testing.T) {
	w := &fakeWorkflow{txs: []testbed.Transaction{{CommitTxID: "c1"}, {CommitTxID: "c2"}}}
	h := newTestHandler(t, w)
	rec, resp := do(t, h, http.MethodGet, "/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var txs []testbed.Transaction
	require.NoError(t, json.Unmarshal(resp.Data, &txs))
	assert.Len(t, txs, 2)
	assert.Equal(t, "c2", txs[1].CommitTxID)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t, &fakeWorkflow{})
	do(t, h, http.MethodGet, "/state", "")
	rec, _ := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "insc_testbed_http_duration")
}
