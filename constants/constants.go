package constants

const (
	AppName = "insc-testbed"

	// OneBtc is the number of satoshis in one bitcoin.
	OneBtc = 100_000_000

	// MaxSafeDisplayBalance is the largest integer a display layer backed by
	// IEEE-754 doubles can hold exactly (2^53-1).
	MaxSafeDisplayBalance = 1<<53 - 1
)

// regtest proxy defaults
const (
	DefaultNodeURL      = "http://localhost:8000/proxy"
	DefaultNodeUser     = "icp"
	DefaultNodePassword = "test"
	DefaultSignerURL    = "http://localhost:4943"
	DefaultListen       = ":8335"

	// DefaultFundingAmount is sent from the node wallet on every top up, in BTC.
	DefaultFundingAmount = "1"

	// MineBlocks is how many blocks one mining step generates.
	MineBlocks = 1
)
