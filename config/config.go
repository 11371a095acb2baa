package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/go-playground/validator/v10"
	"github.com/inscription-c/insc-testbed/constants"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// environment overrides
const (
	EnvNodeURL          = "INSC_NODE_URL"
	EnvNodeUser         = "INSC_NODE_USER"
	EnvNodePassword     = "INSC_NODE_PASSWORD"
	EnvSignerURL        = "INSC_SIGNER_URL"
	EnvSignerCanisterID = "INSC_SIGNER_CANISTER_ID"
)

var validate = validator.New()

// Config holds everything the testbed needs at startup. It is loaded once,
// validated once and handed to the components that need it.
type Config struct {
	Node struct {
		URL           string        `yaml:"url" validate:"required,url"`
		User          string        `yaml:"user"`
		Password      string        `yaml:"password"`
		RpcID         string        `yaml:"rpc_id"`
		RPCCert       string        `yaml:"rpc_cert"`
		TLSSkipVerify bool          `yaml:"tls_skip_verify"`
		Timeout       time.Duration `yaml:"timeout" validate:"gte=0"`
	} `yaml:"node"`
	Signer struct {
		URL        string        `yaml:"url" validate:"required,url"`
		CanisterID string        `yaml:"canister_id"`
		Timeout    time.Duration `yaml:"timeout" validate:"gte=0"`
	} `yaml:"signer"`
	Workflow struct {
		// FundingAmount is in BTC, e.g. "1" or "0.5".
		FundingAmount string `yaml:"funding_amount" validate:"required"`
		// FeeRate in sat/vB, zero leaves the signer default.
		FeeRate uint64 `yaml:"fee_rate"`
	} `yaml:"workflow"`
	Server struct {
		Listen     string `yaml:"listen" validate:"required"`
		PProf      bool   `yaml:"pprof"`
		Prometheus bool   `yaml:"prometheus"`
	} `yaml:"server"`
	Log struct {
		File  string `yaml:"file"`
		Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error critical off"`
	} `yaml:"log"`
}

// Default returns the regtest proxy defaults.
func Default() *Config {
	c := &Config{}
	c.Node.URL = constants.DefaultNodeURL
	c.Node.User = constants.DefaultNodeUser
	c.Node.Password = constants.DefaultNodePassword
	c.Signer.URL = constants.DefaultSignerURL
	c.Workflow.FundingAmount = constants.DefaultFundingAmount
	c.Server.Listen = constants.DefaultListen
	c.Server.Prometheus = true
	c.Log.Level = "info"
	return c
}

// Load reads defaults, then the yaml file at path (if any), then the
// environment overrides.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(c); err != nil {
			return nil, fmt.Errorf("decode config %s: %v", path, err)
		}
	}
	c.applyEnv(os.LookupEnv)
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvNodeURL, &c.Node.URL)
	set(EnvNodeUser, &c.Node.User)
	set(EnvNodePassword, &c.Node.Password)
	set(EnvSignerURL, &c.Signer.URL)
	set(EnvSignerCanisterID, &c.Signer.CanisterID)
}

// Validate checks struct tags and the funding amount.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.FundingAmount(); err != nil {
		return err
	}
	return nil
}

// FundingAmount converts Workflow.FundingAmount into satoshis.
func (c *Config) FundingAmount() (btcutil.Amount, error) {
	d, err := decimal.NewFromString(c.Workflow.FundingAmount)
	if err != nil {
		return 0, fmt.Errorf("funding_amount %q invalid: %v", c.Workflow.FundingAmount, err)
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return 0, errors.New("funding_amount must greater than 0")
	}
	sat := d.Mul(decimal.NewFromInt(constants.OneBtc))
	if !sat.Equal(sat.Truncate(0)) {
		return 0, fmt.Errorf("funding_amount %q has more than 8 decimals", c.Workflow.FundingAmount)
	}
	if sat.GreaterThan(decimal.NewFromInt(int64(btcutil.MaxSatoshi))) {
		return 0, fmt.Errorf("funding_amount %q exceeds max supply", c.Workflow.FundingAmount)
	}
	return btcutil.Amount(sat.IntPart()), nil
}

// LogFile returns the configured log file or the default under the app data dir.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(btcutil.AppDataDir(constants.AppName, false), "logs", "testbed.log")
}

// flags mirrors the subset of Config settable on the command line.
type flags struct {
	configFile    string
	nodeURL       string
	nodeUser      string
	nodePassword  string
	signerURL     string
	canisterID    string
	fundingAmount string
	feeRate       uint64
	listen        string
	pprof         bool
	logLevel      string
}

var cmdFlags = map[*cobra.Command]*flags{}

// RegisterFlags adds the shared configuration flags to cmd.
func RegisterFlags(cmd *cobra.Command) {
	f := &flags{}
	cmdFlags[cmd] = f
	cmd.PersistentFlags().StringVarP(&f.configFile, "config", "c", "", "config file path")
	cmd.PersistentFlags().StringVarP(&f.nodeURL, "rpc_connect", "s", "", fmt.Sprintf("node json-rpc url (default %s)", constants.DefaultNodeURL))
	cmd.PersistentFlags().StringVarP(&f.nodeUser, "user", "u", "", "node rpc username")
	cmd.PersistentFlags().StringVarP(&f.nodePassword, "password", "P", "", "node rpc password")
	cmd.PersistentFlags().StringVarP(&f.signerURL, "signer", "", "", fmt.Sprintf("signer url (default %s)", constants.DefaultSignerURL))
	cmd.PersistentFlags().StringVarP(&f.canisterID, "canister_id", "", "", "signer canister id")
	cmd.PersistentFlags().StringVarP(&f.fundingAmount, "funding_amount", "", "", "BTC sent by every top up. Default `1`")
	cmd.PersistentFlags().Uint64VarP(&f.feeRate, "fee_rate", "", 0, "inscription fee rate in sat/vB, 0 uses the signer default")
	cmd.PersistentFlags().StringVarP(&f.listen, "rpc_listen", "l", "", fmt.Sprintf("api listen address (default %s)", constants.DefaultListen))
	cmd.PersistentFlags().BoolVarP(&f.pprof, "pprof", "", false, "enable pprof")
	cmd.PersistentFlags().StringVarP(&f.logLevel, "log_level", "", "", "log level: trace, debug, info, warn, error, critical, off")
}

// FromCommand loads the config for cmd and applies every flag the user set
// explicitly, so flags win over the file and the environment.
func FromCommand(cmd *cobra.Command) (*Config, error) {
	var f *flags
	for c := cmd; c != nil && f == nil; c = c.Parent() {
		f = cmdFlags[c]
	}
	if f == nil {
		f = &flags{}
	}
	c, err := Load(f.configFile)
	if err != nil {
		return nil, err
	}
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("rpc_connect") {
		c.Node.URL = f.nodeURL
	}
	if changed("user") {
		c.Node.User = f.nodeUser
	}
	if changed("password") {
		c.Node.Password = f.nodePassword
	}
	if changed("signer") {
		c.Signer.URL = f.signerURL
	}
	if changed("canister_id") {
		c.Signer.CanisterID = f.canisterID
	}
	if changed("funding_amount") {
		c.Workflow.FundingAmount = f.fundingAmount
	}
	if changed("fee_rate") {
		c.Workflow.FeeRate = f.feeRate
	}
	if changed("rpc_listen") {
		c.Server.Listen = f.listen
	}
	if changed("pprof") {
		c.Server.PProf = f.pprof
	}
	if changed("log_level") {
		c.Log.Level = f.logLevel
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
