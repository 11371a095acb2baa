package testbed

import (
	"time"

	"github.com/holiman/uint256"
	"github.com/inscription-c/insc-testbed/constants"
	"github.com/inscription-c/insc-testbed/internal/util"
)

// SessionState is the coarse lifecycle of a session.
type SessionState int

const (
	Uninitialized SessionState = iota
	Initializing
	Ready
)

func (s SessionState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// LoadingFlags are true exactly while the matching action holds its token.
type LoadingFlags struct {
	Balance    bool `json:"balance"`
	Inscribing bool `json:"inscribing"`
}

// State is a snapshot of everything the presentation layer may read.
type State struct {
	Session SessionState
	// Address is the custodial deposit address. Set once per session.
	Address string
	// NodeAddress is the node wallet address used for mining rewards.
	NodeAddress string
	// Balance is nil until the first successful fetch.
	Balance        *uint256.Int
	BalanceAddress string
	BlockHeight    int64
	Loading        LoadingFlags
}

func (s State) clone() State {
	if s.Balance != nil {
		s.Balance = s.Balance.Clone()
	}
	return s
}

// DisplayBalance narrows b to a number a double-backed display can hold
// exactly. Values above 2^53-1 saturate and report overflow.
func DisplayBalance(b *uint256.Int) (value uint64, overflow bool) {
	if b == nil {
		return 0, false
	}
	if b.IsUint64() && b.Uint64() <= constants.MaxSafeDisplayBalance {
		return b.Uint64(), false
	}
	return constants.MaxSafeDisplayBalance, true
}

// formatSats renders b with grouped digits for log lines.
func formatSats(b *uint256.Int) string {
	if b == nil {
		return "-"
	}
	return util.NumberFormat(b.Dec())
}

// StateView is the JSON shape of State.
type StateView struct {
	Session         string       `json:"session"`
	Address         string       `json:"address"`
	NodeAddress     string       `json:"node_address"`
	Balance         *uint64      `json:"balance"`
	BalanceRaw      string       `json:"balance_raw,omitempty"`
	BalanceOverflow bool         `json:"balance_overflow,omitempty"`
	BalanceAddress  string       `json:"balance_address,omitempty"`
	BlockHeight     int64        `json:"block_height"`
	Loading         LoadingFlags `json:"loading"`
}

func (s State) View() StateView {
	v := StateView{
		Session:        s.Session.String(),
		Address:        s.Address,
		NodeAddress:    s.NodeAddress,
		BalanceAddress: s.BalanceAddress,
		BlockHeight:    s.BlockHeight,
		Loading:        s.Loading,
	}
	if s.Balance != nil {
		display, overflow := DisplayBalance(s.Balance)
		v.Balance = &display
		v.BalanceRaw = s.Balance.Dec()
		v.BalanceOverflow = overflow
	}
	return v
}

// Transaction is one entry of the session's transaction log.
type Transaction struct {
	CommitTxID  string                `json:"commit_txid"`
	RevealTxID  string                `json:"reveal_txid"`
	ContentType constants.ContentType `json:"content_type"`
	ContentSize int                   `json:"content_size"`
	Recipient   string                `json:"recipient,omitempty"`
	BlockHeight int64                 `json:"block_height"`
	SubmittedAt time.Time             `json:"submitted_at"`
}

// FundingResult collects what each step of RequestFunding produced. Fields of
// steps that did not run are zero.
type FundingResult struct {
	Address     string       `json:"address"`
	TxID        string       `json:"txid"`
	BlockHeight int64        `json:"block_height"`
	Balance     *uint256.Int `json:"-"`
}
