package testbed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/holiman/uint256"
	"github.com/inscription-c/insc-testbed/inscription"
	"github.com/inscription-c/insc-testbed/internal/metrics"
	"golang.org/x/sync/semaphore"
)

// Node is the subset of the node's JSON-RPC the workflow consumes.
type Node interface {
	GetBlockCount(ctx context.Context) (int64, error)
	GetNewAddress(ctx context.Context) (string, error)
	GenerateToAddress(ctx context.Context, numBlocks int64, address string) ([]string, error)
	SendToAddress(ctx context.Context, address string, amount btcutil.Amount) (string, error)
}

// Signer is the custodial backend holding the deposit key.
type Signer interface {
	P2PKHAddress(ctx context.Context) (string, error)
	Balance(ctx context.Context, address string) (*uint256.Int, error)
	Inscribe(ctx context.Context, s *inscription.Submission) (*inscription.Receipt, error)
}

type Options struct {
	node          Node
	signer        Signer
	fundingAmount btcutil.Amount
	feeRate       uint64
	now           func() time.Time
	observer      func(State)
}

type Option func(*Options)

func WithNode(node Node) Option {
	return func(o *Options) {
		o.node = node
	}
}

func WithSigner(s Signer) Option {
	return func(o *Options) {
		o.signer = s
	}
}

// WithFundingAmount sets the amount RequestFunding sends.
func WithFundingAmount(amount btcutil.Amount) Option {
	return func(o *Options) {
		o.fundingAmount = amount
	}
}

// WithFeeRate fills the inscribe fee rate slot. Zero leaves it empty.
func WithFeeRate(feeRate uint64) Option {
	return func(o *Options) {
		o.feeRate = feeRate
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.now = now
	}
}

// WithObserver registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that made the change and must not block.
func WithObserver(fn func(State)) Option {
	return func(o *Options) {
		o.observer = fn
	}
}

// Orchestrator sequences the testbed workflow against a node and a signer.
//
// FetchBalance and SubmitInscription each own an in-flight token. A caller
// invoking one of them while it runs gets ErrInFlight instead of a second
// concurrent call. Steps chained inside another operation wait for the token
// until their context is done.
type Orchestrator struct {
	opts *Options

	mu    sync.RWMutex
	state State
	txs   []Transaction

	balanceToken  *semaphore.Weighted
	inscribeToken *semaphore.Weighted
}

func New(opts ...Option) (*Orchestrator, error) {
	o := &Options{
		fundingAmount: btcutil.SatoshiPerBitcoin,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.node == nil {
		return nil, errors.New("node is nil")
	}
	if o.signer == nil {
		return nil, errors.New("signer is nil")
	}
	if o.fundingAmount <= 0 {
		return nil, errors.New("funding amount must greater than 0")
	}
	return &Orchestrator{
		opts:          o,
		balanceToken:  semaphore.NewWeighted(1),
		inscribeToken: semaphore.NewWeighted(1),
	}, nil
}

// Snapshot returns a copy of the current state.
func (t *Orchestrator) Snapshot() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.clone()
}

// Transactions returns a copy of the transaction log in submission order.
func (t *Orchestrator) Transactions() []Transaction {
	t.mu.RLock()
	defer t.mu.RUnlock()
	txs := make([]Transaction, len(t.txs))
	copy(txs, t.txs)
	return txs
}

// Address returns the custodial deposit address, "" until known.
func (t *Orchestrator) Address() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Address
}

func (t *Orchestrator) nodeAddress() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.NodeAddress
}

// update applies fn under the state lock and notifies the observer.
func (t *Orchestrator) update(fn func(s *State)) {
	t.mu.Lock()
	fn(&t.state)
	snapshot := t.state.clone()
	t.mu.Unlock()
	if t.opts.observer != nil {
		t.opts.observer(snapshot)
	}
}

// acquire takes token for action. With wait unset a busy token fails fast
// with ErrInFlight, otherwise it waits until the token frees up or ctx is
// done. The returned release clears the loading flag and frees the token.
func (t *Orchestrator) acquire(ctx context.Context, token *semaphore.Weighted, action string, flag func(*LoadingFlags, bool), wait bool) (func(), error) {
	if wait {
		if err := token.Acquire(ctx, 1); err != nil {
			metrics.CountStep(action, metrics.OutcomeBusy)
			return nil, &StepError{Step: action, Err: err}
		}
	} else if !token.TryAcquire(1) {
		metrics.CountStep(action, metrics.OutcomeBusy)
		return nil, &StepError{Step: action, Err: ErrInFlight}
	}
	t.update(func(s *State) { flag(&s.Loading, true) })
	metrics.SetInFlight(action, true)
	return func() {
		t.update(func(s *State) { flag(&s.Loading, false) })
		metrics.SetInFlight(action, false)
		token.Release(1)
	}, nil
}

func setBalanceFlag(f *LoadingFlags, v bool)    { f.Balance = v }
func setInscribingFlag(f *LoadingFlags, v bool) { f.Inscribing = v }
