package testbed

import (
	"github.com/inscription-c/insc-testbed/client"
	"github.com/inscription-c/insc-testbed/config"
	"github.com/inscription-c/insc-testbed/signer"
)

// NewFromConfig builds the node and signer clients described by cfg and an
// orchestrator over them. cfg must already be validated.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Orchestrator, error) {
	node, err := client.NewClient(
		client.WithClientHost(cfg.Node.URL),
		client.WithClientUser(cfg.Node.User),
		client.WithClientPassword(cfg.Node.Password),
		client.WithClientRpcID(cfg.Node.RpcID),
		client.WithClientCert(cfg.Node.RPCCert),
		client.WithClientTLSSkipVerify(cfg.Node.TLSSkipVerify),
		client.WithClientTimeout(cfg.Node.Timeout),
	)
	if err != nil {
		return nil, err
	}
	s, err := signer.New(
		signer.WithURL(cfg.Signer.URL),
		signer.WithCanisterID(cfg.Signer.CanisterID),
		signer.WithTimeout(cfg.Signer.Timeout),
	)
	if err != nil {
		return nil, err
	}
	amount, err := cfg.FundingAmount()
	if err != nil {
		return nil, err
	}
	return New(append([]Option{
		WithNode(node),
		WithSigner(s),
		WithFundingAmount(amount),
		WithFeeRate(cfg.Workflow.FeeRate),
	}, opts...)...)
}
