package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/inscription-c/insc-testbed/internal/log"
)

var validate = validator.New()

// clientOptions holds the configuration of a node client.
type clientOptions struct {
	Host          string `validate:"required,url"`
	User          string
	Password      string
	RpcID         string
	Cert          string
	TLSSkipVerify bool
	Timeout       time.Duration
	HTTPClient    *http.Client
}

// ClientOption sets a field of clientOptions.
type ClientOption func(*clientOptions)

// WithClientHost sets the JSON-RPC endpoint url.
func WithClientHost(host string) ClientOption {
	return func(o *clientOptions) {
		o.Host = host
	}
}

// WithClientUser sets the basic auth username.
func WithClientUser(user string) ClientOption {
	return func(o *clientOptions) {
		o.User = user
	}
}

// WithClientPassword sets the basic auth password.
func WithClientPassword(password string) ClientOption {
	return func(o *clientOptions) {
		o.Password = password
	}
}

// WithClientRpcID fixes the request id. Without it every request carries a
// fresh uuid.
func WithClientRpcID(id string) ClientOption {
	return func(o *clientOptions) {
		o.RpcID = id
	}
}

// WithClientCert sets a PEM file used as the root CA pool.
func WithClientCert(cert string) ClientOption {
	return func(o *clientOptions) {
		o.Cert = cert
	}
}

func WithClientTLSSkipVerify(skip bool) ClientOption {
	return func(o *clientOptions) {
		o.TLSSkipVerify = skip
	}
}

// WithClientTimeout bounds a whole request. Zero means the transport decides.
func WithClientTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.Timeout = timeout
	}
}

// WithHTTPClient replaces the http client, cert and timeout options are
// ignored when set.
func WithHTTPClient(cli *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.HTTPClient = cli
	}
}

// Client talks JSON-RPC 1.0 over HTTP POST with basic auth to a bitcoin node.
type Client struct {
	url      string
	user     string
	password string
	rpcID    string

	httpClient *http.Client
}

// NewClient applies the options, validates them and builds the http client.
func NewClient(optFns ...ClientOption) (*Client, error) {
	opts := &clientOptions{}
	for _, v := range optFns {
		v(opts)
	}
	if err := validate.Struct(opts); err != nil {
		return nil, err
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		var err error
		httpClient, err = newHTTPClient(opts)
		if err != nil {
			return nil, err
		}
	}
	return &Client{
		url:        opts.Host,
		user:       opts.User,
		password:   opts.Password,
		rpcID:      opts.RpcID,
		httpClient: httpClient,
	}, nil
}

func (c *Client) nextID() string {
	if c.rpcID != "" {
		return c.rpcID
	}
	return uuid.NewString()
}

// SendRequest marshals method and params as a registered btcjson command,
// posts it and decodes the reply's result into result. A non-nil error object
// in the reply is returned as *btcjson.RPCError.
func (c *Client) SendRequest(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	cmd, err := btcjson.NewCmd(method, params...)
	if err != nil {
		var jerr btcjson.Error
		if errors.As(err, &jerr) {
			return fmt.Errorf("%s command: %v (code: %s)", method, err, jerr.ErrorCode)
		}
		return fmt.Errorf("%s command: %v", method, err)
	}

	marshalledJSON, err := btcjson.MarshalCmd(btcjson.RpcVersion1, c.nextID(), cmd)
	if err != nil {
		return err
	}
	log.Node.Tracef("rpc request: %s", marshalledJSON)

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(marshalledJSON))
	if err != nil {
		return err
	}
	httpRequest.Close = true
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.SetBasicAuth(c.user, c.password)

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return err
	}
	respBytes, err := io.ReadAll(httpResponse.Body)
	_ = httpResponse.Body.Close()
	if err != nil {
		return fmt.Errorf("error reading json reply: %v", err)
	}
	log.Node.Tracef("rpc reply: %s", respBytes)

	resp := &Response{
		Result: result,
	}
	if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
		// bitcoind answers rpc errors with a 500 and a regular json-rpc body
		if len(respBytes) > 0 && json.Unmarshal(respBytes, resp) == nil && resp.Error != nil {
			return resp.Error
		}
		if len(respBytes) == 0 {
			return fmt.Errorf("%d %s", httpResponse.StatusCode, http.StatusText(httpResponse.StatusCode))
		}
		return fmt.Errorf("%d %s", httpResponse.StatusCode, bytes.TrimSpace(respBytes))
	}
	if err := json.Unmarshal(respBytes, resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	return nil
}

// newHTTPClient returns a new HTTP client that is configured according to the
// TLS and timeout settings in opts.
func newHTTPClient(opts *clientOptions) (*http.Client, error) {
	var tlsConfig *tls.Config
	if opts.Cert != "" || opts.TLSSkipVerify {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: opts.TLSSkipVerify,
		}
	}
	if opts.Cert != "" {
		pem, err := os.ReadFile(opts.Cert)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", opts.Cert)
		}
		tlsConfig.RootCAs = pool
	}

	client := &http.Client{Timeout: opts.Timeout}
	if tlsConfig != nil {
		client.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
	}
	return client, nil
}
