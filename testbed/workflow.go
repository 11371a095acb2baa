package testbed

import (
	"context"
	"errors"
	"time"

	"github.com/holiman/uint256"
	"github.com/inscription-c/insc-testbed/constants"
	"github.com/inscription-c/insc-testbed/inscription"
	"github.com/inscription-c/insc-testbed/internal/log"
	"github.com/inscription-c/insc-testbed/internal/metrics"
)

// step runs fn, records its outcome and logs a failure. Failures come back
// wrapped in a StepError unless fn already returned one.
func step(name string, fn func() error) error {
	started := time.Now()
	err := fn()
	metrics.ObserveStep(name, started, err)
	if err == nil {
		return nil
	}
	log.Log.Errorf("%s failed: %v", name, err)
	var se *StepError
	if errors.As(err, &se) {
		return err
	}
	return &StepError{Step: name, Err: err}
}

// Initialize fetches, in order, the signer address, a node address, the block
// height and the balance of the signer address. Every step is attempted even
// when an earlier one failed. The returned error joins all step failures.
func (t *Orchestrator) Initialize(ctx context.Context) error {
	t.update(func(s *State) { s.Session = Initializing })
	defer t.update(func(s *State) { s.Session = Ready })

	var errs []error
	if err := t.fetchSignerAddress(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := t.fetchNodeAddress(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := t.refreshBlockHeight(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := t.fetchBalance(ctx, t.Address(), true); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (t *Orchestrator) fetchSignerAddress(ctx context.Context) error {
	if t.Address() != "" {
		return nil
	}
	return step(StepSignerAddress, func() error {
		address, err := t.opts.signer.P2PKHAddress(ctx)
		if err != nil {
			return err
		}
		t.update(func(s *State) {
			if s.Address == "" {
				s.Address = address
			}
		})
		log.Log.Infof("signer address %s", address)
		return nil
	})
}

func (t *Orchestrator) fetchNodeAddress(ctx context.Context) error {
	return step(StepNodeAddress, func() error {
		address, err := t.opts.node.GetNewAddress(ctx)
		if err != nil {
			return err
		}
		t.update(func(s *State) { s.NodeAddress = address })
		log.Log.Infof("node address %s", address)
		return nil
	})
}

// refreshBlockHeight stores the node's block count as its own step.
func (t *Orchestrator) refreshBlockHeight(ctx context.Context) (height int64, err error) {
	err = step(StepBlockHeight, func() error {
		height, err = t.storeBlockHeight(ctx)
		return err
	})
	return
}

// storeBlockHeight reads the block count and stores it. The stored height
// never decreases, a stale reply from an overlapping call is ignored.
func (t *Orchestrator) storeBlockHeight(ctx context.Context) (int64, error) {
	count, err := t.opts.node.GetBlockCount(ctx)
	if err != nil {
		return 0, err
	}
	var height int64
	t.update(func(s *State) {
		if count > s.BlockHeight {
			s.BlockHeight = count
		}
		height = s.BlockHeight
	})
	metrics.BlockHeight.Set(float64(height))
	log.Log.Debugf("block height %d", height)
	return height, nil
}

// FetchBalance asks the signer for the balance of address and stores it. An
// empty address is a no-op returning (nil, nil). On failure the previous
// balance is kept. A concurrent call fails with ErrInFlight.
func (t *Orchestrator) FetchBalance(ctx context.Context, address string) (*uint256.Int, error) {
	return t.fetchBalance(ctx, address, false)
}

func (t *Orchestrator) fetchBalance(ctx context.Context, address string, wait bool) (balance *uint256.Int, err error) {
	if address == "" {
		metrics.CountStep(StepBalance, metrics.OutcomeSkipped)
		log.Log.Debugf("balance skipped: no address")
		return nil, nil
	}
	release, err := t.acquire(ctx, t.balanceToken, StepBalance, setBalanceFlag, wait)
	if err != nil {
		return nil, err
	}
	defer release()

	err = step(StepBalance, func() error {
		b, err := t.opts.signer.Balance(ctx, address)
		if err != nil {
			return err
		}
		balance = b
		t.update(func(s *State) {
			s.Balance = b.Clone()
			s.BalanceAddress = address
		})
		log.Log.Infof("balance of %s: %s sats", address, formatSats(b))
		display, overflow := DisplayBalance(b)
		if overflow {
			log.Log.Warnf("balance of %s is %s, display value saturated", address, b.Dec())
		}
		if address == t.Address() {
			metrics.Balance.Set(float64(display))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// MineBlock mines one block to the node's own address and refreshes the block
// height. It returns the new height. A failed height read after mining fails
// the mining step.
func (t *Orchestrator) MineBlock(ctx context.Context) (int64, error) {
	var height int64
	err := step(StepMining, func() error {
		address := t.nodeAddress()
		if address == "" {
			return ErrNoMiningAddress
		}
		hashes, err := t.opts.node.GenerateToAddress(ctx, constants.MineBlocks, address)
		if err != nil {
			return err
		}
		log.Log.Infof("mined %v", hashes)

		height, err = t.storeBlockHeight(ctx)
		return err
	})
	return height, err
}

// RequestFunding sends the configured amount from the node wallet to address,
// then mines a block and refreshes the balance of address. The chain stops at
// the first failing step and nothing is rolled back: a transfer already
// accepted by the node stays, and a later MineBlock or FetchBalance brings the
// state up to date.
func (t *Orchestrator) RequestFunding(ctx context.Context, address string) (*FundingResult, error) {
	res := &FundingResult{Address: address}
	err := step(StepFunding, func() error {
		if address == "" {
			return ErrNoAddress
		}
		txid, err := t.opts.node.SendToAddress(ctx, address, t.opts.fundingAmount)
		if err != nil {
			return err
		}
		res.TxID = txid
		log.Log.Infof("funded %s with %s in %s", address, t.opts.fundingAmount, txid)
		return nil
	})
	if err != nil {
		return res, err
	}

	if res.BlockHeight, err = t.MineBlock(ctx); err != nil {
		return res, err
	}
	res.Balance, err = t.fetchBalance(ctx, address, true)
	return res, err
}

// SubmitInscription sends req to the signer, appends the receipt to the
// transaction log and mines a block to confirm it. A concurrent call fails
// with ErrInFlight. When mining fails after a successful submission the
// logged transaction is returned together with the mining error.
func (t *Orchestrator) SubmitInscription(ctx context.Context, req inscription.Request) (*Transaction, error) {
	submission, err := req.Submission(t.opts.feeRate)
	if err != nil {
		return nil, step(StepInscribe, func() error { return err })
	}

	release, err := t.acquire(ctx, t.inscribeToken, StepInscribe, setInscribingFlag, false)
	if err != nil {
		return nil, err
	}
	defer release()

	var tx *Transaction
	err = step(StepInscribe, func() error {
		receipt, err := t.opts.signer.Inscribe(ctx, submission)
		if err != nil {
			return err
		}
		tx = &Transaction{
			CommitTxID:  receipt.CommitTxID,
			RevealTxID:  receipt.RevealTxID,
			ContentType: submission.ContentType,
			ContentSize: len(submission.Body),
			Recipient:   req.Recipient,
			SubmittedAt: t.opts.now(),
		}
		t.mu.Lock()
		tx.BlockHeight = t.state.BlockHeight
		t.txs = append(t.txs, *tx)
		t.mu.Unlock()
		log.Log.Infof("inscribed %s commit %s reveal %s", submission.ContentType, receipt.CommitTxID, receipt.RevealTxID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	_, err = t.MineBlock(ctx)
	return tx, err
}
