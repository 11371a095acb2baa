package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/holiman/uint256"
	"github.com/inscription-c/insc-testbed/inscription"
	"github.com/inscription-c/insc-testbed/internal/log"
)

var validate = validator.New()

// StatusError is returned when the signer answers with a non-2xx status.
type StatusError struct {
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("signer %s: %d %s", e.Path, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("signer %s: %d %s", e.Path, e.Status, e.Message)
}

type options struct {
	URL        string `validate:"required,url"`
	CanisterID string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Option func(*options)

// WithURL sets the signer gateway url.
func WithURL(u string) Option {
	return func(o *options) {
		o.URL = u
	}
}

// WithCanisterID prefixes every path with the canister id.
func WithCanisterID(id string) Option {
	return func(o *options) {
		o.CanisterID = id
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.Timeout = timeout
	}
}

func WithHTTPClient(cli *http.Client) Option {
	return func(o *options) {
		o.HTTPClient = cli
	}
}

// Client calls the custodial signer that owns the deposit key.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(opts ...Option) (*Client, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if err := validate.Struct(o); err != nil {
		return nil, err
	}
	base := strings.TrimRight(o.URL, "/")
	if o.CanisterID != "" {
		base = base + "/" + url.PathEscape(o.CanisterID)
	}
	cli := o.HTTPClient
	if cli == nil {
		cli = &http.Client{Timeout: o.Timeout}
	}
	return &Client{baseURL: base, http: cli}, nil
}

type addressResp struct {
	Address string `json:"address"`
}

// P2PKHAddress returns the signer's deposit address.
func (c *Client) P2PKHAddress(ctx context.Context) (string, error) {
	resp := &addressResp{}
	if err := c.do(ctx, http.MethodGet, "/p2pkh_address", nil, resp); err != nil {
		return "", err
	}
	if resp.Address == "" {
		return "", errors.New("signer returned an empty address")
	}
	return resp.Address, nil
}

type balanceResp struct {
	Balance json.Number `json:"balance"`
}

// Balance returns the confirmed balance of address in satoshis. The value is
// kept at full precision.
func (c *Client) Balance(ctx context.Context, address string) (*uint256.Int, error) {
	resp := &balanceResp{}
	if err := c.do(ctx, http.MethodGet, "/balance/"+url.PathEscape(address), nil, resp); err != nil {
		return nil, err
	}
	if resp.Balance == "" {
		return nil, errors.New("signer returned an empty balance")
	}
	balance, err := uint256.FromDecimal(resp.Balance.String())
	if err != nil {
		return nil, fmt.Errorf("signer balance %q: %v", resp.Balance, err)
	}
	return balance, nil
}

// Inscribe submits an inscription. The signer builds, signs and broadcasts
// the commit and reveal transactions.
func (c *Client) Inscribe(ctx context.Context, s *inscription.Submission) (*inscription.Receipt, error) {
	receipt := &inscription.Receipt{}
	if err := c.do(ctx, http.MethodPost, "/inscribe", s, receipt); err != nil {
		return nil, err
	}
	if receipt.RevealTxID == "" {
		return nil, errors.New("signer returned no reveal txid")
	}
	return receipt, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(bs)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	log.Sign.Debugf("%s %s: %d in %s", method, path, resp.StatusCode, time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Path: path, Status: resp.StatusCode, Message: string(bytes.TrimSpace(msg))}
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode signer %s reply: %v", path, err)
	}
	return nil
}
