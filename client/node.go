package client

import (
	"context"
	"errors"

	"github.com/btcsuite/btcd/btcutil"
)

// ErrEmptyResult is returned when the node replies with a null result where a
// value is required.
var ErrEmptyResult = errors.New("node returned an empty result")

// GetBlockCount returns the height of the most-work fully-validated chain.
func (c *Client) GetBlockCount(ctx context.Context) (int64, error) {
	count := new(int64)
	if err := c.SendRequest(ctx, "getblockcount", count); err != nil {
		return 0, err
	}
	return *count, nil
}

// GetNewAddress asks the node wallet for a fresh receiving address.
func (c *Client) GetNewAddress(ctx context.Context) (string, error) {
	address := new(string)
	if err := c.SendRequest(ctx, "getnewaddress", address); err != nil {
		return "", err
	}
	if *address == "" {
		return "", ErrEmptyResult
	}
	return *address, nil
}

// GenerateToAddress mines numBlocks blocks paying the coinbase to address and
// returns their hashes.
func (c *Client) GenerateToAddress(ctx context.Context, numBlocks int64, address string) ([]string, error) {
	hashes := make([]string, 0, numBlocks)
	if err := c.SendRequest(ctx, "generatetoaddress", &hashes, numBlocks, address); err != nil {
		return nil, err
	}
	return hashes, nil
}

// SendToAddress sends amount from the node wallet to address and returns the
// transaction id.
func (c *Client) SendToAddress(ctx context.Context, address string, amount btcutil.Amount) (string, error) {
	txid := new(string)
	if err := c.SendRequest(ctx, "sendtoaddress", txid, address, amount.ToBTC()); err != nil {
		return "", err
	}
	if *txid == "" {
		return "", ErrEmptyResult
	}
	return *txid, nil
}
