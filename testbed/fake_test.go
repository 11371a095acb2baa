package testbed

import (
	"context"
	"errors"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/holiman/uint256"
	"github.com/inscription-c/insc-testbed/inscription"
)

var (
	errNodeDown   = errors.New("connect: connection refused")
	errSignerDown = errors.New("signer unavailable")
)

type sendCall struct {
	address string
	amount  btcutil.Amount
}

// fakeNode is a regtest node kept in memory. Mining bumps the height and
// credits every pending transfer through onConfirm.
type fakeNode struct {
	mu sync.Mutex

	height     int64
	newAddress string
	sendTxID   string

	addressErr  error
	countErr    error
	generateErr error
	sendErr     error
	// countOverride, when set, is returned by GetBlockCount instead of height.
	countOverride *int64

	sent    []sendCall
	pending []sendCall
	mined   []string

	onConfirm func(address string, amount btcutil.Amount)
}

func (n *fakeNode) GetBlockCount(ctx context.Context) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.countErr != nil {
		return 0, n.countErr
	}
	if n.countOverride != nil {
		return *n.countOverride, nil
	}
	return n.height, nil
}

func (n *fakeNode) GetNewAddress(ctx context.Context) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.addressErr != nil {
		return "", n.addressErr
	}
	return n.newAddress, nil
}

func (n *fakeNode) GenerateToAddress(ctx context.Context, numBlocks int64, address string) ([]string, error) {
	n.mu.Lock()
	if n.generateErr != nil {
		n.mu.Unlock()
		return nil, n.generateErr
	}
	n.height += numBlocks
	n.mined = append(n.mined, address)
	pending := n.pending
	n.pending = nil
	onConfirm := n.onConfirm
	n.mu.Unlock()

	if onConfirm != nil {
		for _, p := range pending {
			onConfirm(p.address, p.amount)
		}
	}
	hashes := make([]string, numBlocks)
	for i := range hashes {
		hashes[i] = "blockhash"
	}
	return hashes, nil
}

func (n *fakeNode) SendToAddress(ctx context.Context, address string, amount btcutil.Amount) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return "", n.sendErr
	}
	call := sendCall{address: address, amount: amount}
	n.sent = append(n.sent, call)
	n.pending = append(n.pending, call)
	return n.sendTxID, nil
}

func (n *fakeNode) minedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.mined)
}

// fakeSigner holds balances per address. When gate is set, Balance and
// Inscribe signal entered and then wait for gate to close.
type fakeSigner struct {
	mu sync.Mutex

	address    string
	addressErr error

	balances     map[string]*uint256.Int
	balanceErr   error
	balanceCalls int

	receipt     *inscription.Receipt
	inscribeErr error
	submissions []*inscription.Submission

	gate    chan struct{}
	entered chan struct{}
}

func newFakeSigner(address string) *fakeSigner {
	return &fakeSigner{
		address:  address,
		balances: map[string]*uint256.Int{},
		receipt:  &inscription.Receipt{CommitTxID: "commit1", RevealTxID: "reveal1"},
	}
}

func (s *fakeSigner) wait() {
	if s.gate == nil {
		return
	}
	s.entered <- struct{}{}
	<-s.gate
}

func (s *fakeSigner) credit(address string, amount btcutil.Amount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[address]
	if !ok {
		b = uint256.NewInt(0)
	}
	s.balances[address] = new(uint256.Int).Add(b, uint256.NewInt(uint64(amount)))
}

func (s *fakeSigner) P2PKHAddress(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addressErr != nil {
		return "", s.addressErr
	}
	return s.address, nil
}

func (s *fakeSigner) Balance(ctx context.Context, address string) (*uint256.Int, error) {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balanceCalls++
	if s.balanceErr != nil {
		return nil, s.balanceErr
	}
	if b, ok := s.balances[address]; ok {
		return b.Clone(), nil
	}
	return uint256.NewInt(0), nil
}

func (s *fakeSigner) Inscribe(ctx context.Context, sub *inscription.Submission) (*inscription.Receipt, error) {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, sub)
	if s.inscribeErr != nil {
		return nil, s.inscribeErr
	}
	r := *s.receipt
	return &r, nil
}

func (s *fakeSigner) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balanceCalls
}
