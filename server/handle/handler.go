package handle

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/inscription-c/insc-testbed/inscription"
	"github.com/inscription-c/insc-testbed/internal/log"
	"github.com/inscription-c/insc-testbed/server/handle/middlewares"
	"github.com/inscription-c/insc-testbed/testbed"
)

// Workflow is the orchestrator surface the HTTP API drives.
type Workflow interface {
	Initialize(ctx context.Context) error
	FetchBalance(ctx context.Context, address string) (*uint256.Int, error)
	RequestFunding(ctx context.Context, address string) (*testbed.FundingResult, error)
	MineBlock(ctx context.Context) (int64, error)
	SubmitInscription(ctx context.Context, req inscription.Request) (*testbed.Transaction, error)
	Snapshot() testbed.State
	Transactions() []testbed.Transaction
	Address() string
}

type Options struct {
	addr        string
	enablePProf bool
	prometheus  bool
	engin       *gin.Engine
	workflow    Workflow
}

type Option func(*Options)

func WithAddr(addr string) func(*Options) {
	return func(options *Options) {
		options.addr = addr
	}
}

func WithEngin(g *gin.Engine) func(*Options) {
	return func(options *Options) {
		options.engin = g
	}
}

func WithWorkflow(w Workflow) func(*Options) {
	return func(options *Options) {
		options.workflow = w
	}
}

func WithEnablePProf(enable bool) func(*Options) {
	return func(options *Options) {
		options.enablePProf = enable
	}
}

// WithPrometheus exposes /metrics.
func WithPrometheus(enable bool) func(*Options) {
	return func(options *Options) {
		options.prometheus = enable
	}
}

type Handler struct {
	options *Options
}

func New(opts ...Option) (*Handler, error) {
	h := &Handler{}
	h.options = &Options{}
	for _, opt := range opts {
		opt(h.options)
	}
	if h.options.addr == "" {
		h.options.addr = ":8335"
	}
	if h.options.workflow == nil {
		return nil, fmt.Errorf("workflow is nil")
	}
	if h.options.engin == nil {
		h.options.engin = gin.New()
		h.options.engin.Use(gin.Recovery(), middlewares.Logger())
	}
	h.InitRouter()
	return h, nil
}

func (h *Handler) Engine() *gin.Engine {
	return h.options.engin
}

func (h *Handler) Workflow() Workflow {
	return h.options.workflow
}

// Run serves until ctx is done and then shuts the server down.
func (h *Handler) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    h.options.addr,
		Handler: h.options.engin,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Srv.Infof("listening on %s", h.options.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Srv.Errorf("srv.Shutdown: %v", err)
		return err
	}
	return nil
}
