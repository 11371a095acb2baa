package api

type Code = int

// common
const (
	CodeSuccess       Code = 0
	CodeError500      Code = 500
	CodeParamsInvalid Code = 10000
)

// workflow
const (
	CodeInFlight      Code = 20000
	CodeNotReady      Code = 20001
	CodeUpstreamError Code = 20002
)
