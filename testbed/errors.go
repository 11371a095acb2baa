package testbed

import (
	"errors"
	"fmt"
)

// workflow step names, also used as metric and log labels
const (
	StepSignerAddress = "signer_address"
	StepNodeAddress   = "node_address"
	StepBlockHeight   = "block_height"
	StepBalance       = "balance"
	StepFunding       = "funding"
	StepMining        = "mining"
	StepInscribe      = "inscribe"
)

var (
	// ErrInFlight is returned when the same guarded action is already running.
	ErrInFlight = errors.New("action already in flight")
	// ErrNoMiningAddress is returned by MineBlock before the node address is known.
	ErrNoMiningAddress = errors.New("node mining address unknown")
	// ErrNoAddress is returned by RequestFunding for an empty destination.
	ErrNoAddress = errors.New("empty address")
)

// StepError reports which step of a workflow failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep returns the step name carried by err, or "" if there is none.
func FailedStep(err error) string {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step
	}
	return ""
}
