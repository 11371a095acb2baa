package testbed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/inscription-c/insc-testbed/config"
	"github.com/inscription-c/insc-testbed/inscription"
	"github.com/inscription-c/insc-testbed/internal/log"
	"github.com/inscription-c/insc-testbed/internal/signal"
	"github.com/spf13/cobra"
)

var inscribeFlags struct {
	contentType string
	content     string
	recipient   string
}

// Cmd runs one workflow action against the configured node and signer and
// prints the resulting state.
var Cmd = &cobra.Command{
	Use:   "run",
	Short: "run one testbed action and print the session state",
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "fetch the deposit address, a node address, the block height and the balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, nil)
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "refresh the balance of address, the deposit address by default",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, func(ctx context.Context, tb *Orchestrator) (interface{}, error) {
			b, err := tb.FetchBalance(ctx, addressArg(tb, args))
			if err != nil || b == nil {
				return nil, err
			}
			return b.Dec(), nil
		})
	},
}

var fundCmd = &cobra.Command{
	Use:   "fund [address]",
	Short: "send test coins to address, the deposit address by default, and mine a block",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, func(ctx context.Context, tb *Orchestrator) (interface{}, error) {
			return tb.RequestFunding(ctx, addressArg(tb, args))
		})
	},
}

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "mine one block to the node wallet",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, func(ctx context.Context, tb *Orchestrator) (interface{}, error) {
			return tb.MineBlock(ctx)
		})
	},
}

var inscribeCmd = &cobra.Command{
	Use:   "inscribe",
	Short: "submit an inscription to the signer and mine a block",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := inscription.ParseKind(inscribeFlags.contentType)
		if err != nil {
			return err
		}
		req := inscription.Request{
			ContentType: kind,
			Content:     inscribeFlags.content,
			Recipient:   inscribeFlags.recipient,
		}
		return runAction(cmd, func(ctx context.Context, tb *Orchestrator) (interface{}, error) {
			return tb.SubmitInscription(ctx, req)
		})
	},
}

func init() {
	inscribeCmd.Flags().StringVarP(&inscribeFlags.contentType, "type", "t", "text", "content type, text or json")
	inscribeCmd.Flags().StringVarP(&inscribeFlags.content, "content", "", "", "inscription content")
	inscribeCmd.Flags().StringVarP(&inscribeFlags.recipient, "recipient", "", "", "recipient address, the signer's own address by default")

	Cmd.AddCommand(initCmd, balanceCmd, fundCmd, mineCmd, inscribeCmd)
}

func addressArg(tb *Orchestrator, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return tb.Address()
}

type actionOutput struct {
	Result       interface{}   `json:"result,omitempty"`
	State        StateView     `json:"state"`
	Transactions []Transaction `json:"transactions,omitempty"`
}

// runAction loads the config, starts logging, builds and initializes an
// orchestrator and then runs fn. A partial initialization is logged and fn
// still runs. A nil fn stops after initialization and reports its error.
func runAction(cmd *cobra.Command, fn func(ctx context.Context, tb *Orchestrator) (interface{}, error)) error {
	cfg, err := config.FromCommand(cmd)
	if err != nil {
		return err
	}
	if err := log.Setup(cfg.LogFile(), cfg.Log.Level); err != nil {
		return err
	}
	defer log.Close()

	tb, err := NewFromConfig(cfg)
	if err != nil {
		return err
	}

	ctx := signal.Context(context.Background())
	if err := tb.Initialize(ctx); err != nil {
		if fn == nil {
			printState(cmd, tb, nil)
			return err
		}
		log.Log.Warnf("partial initialization: %v", err)
	}
	if fn == nil {
		printState(cmd, tb, nil)
		return nil
	}

	result, err := fn(ctx, tb)
	printState(cmd, tb, result)
	return err
}

func printState(cmd *cobra.Command, tb *Orchestrator, result interface{}) {
	out := actionOutput{
		Result:       result,
		State:        tb.Snapshot().View(),
		Transactions: tb.Transactions(),
	}
	bs, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(bs))
}
