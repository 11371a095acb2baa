package client

import (
	"github.com/btcsuite/btcd/btcjson"
)

// Response is a JSON-RPC reply. Result must be set to a pointer before
// decoding so the payload lands in the caller's value.
type Response struct {
	Jsonrpc btcjson.RPCVersion `json:"jsonrpc"`
	Result  interface{}        `json:"result"`
	Error   *btcjson.RPCError  `json:"error"`
	ID      *interface{}       `json:"id"`
}
