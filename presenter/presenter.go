package presenter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/omni/vaa-bridge/bridge"
	"github.com/omni/vaa-bridge/entity"
	"github.com/omni/vaa-bridge/logging"
	httpmw "github.com/omni/vaa-bridge/presenter/http/middleware"
	"github.com/omni/vaa-bridge/presenter/http/render"
)

var ErrInvalidRequest = errors.New("invalid request")

const (
	shutdownTimeout = 10 * time.Second
	maxBodySize     = 1 << 20
)

// Bridge is the part of bridge.Bridge exposed over HTTP.
type Bridge interface {
	ChainID() uint16
	TokenBridgeEmitter() common.Hash
	State(ctx context.Context) (*entity.BridgeState, error)
	GuardianSet(ctx context.Context, index uint32) (*entity.GuardianSet, error)
	CurrentGuardianSet(ctx context.Context) (*entity.GuardianSet, error)
	GuardianSets(ctx context.Context) ([]*entity.GuardianSet, error)
	RegisteredEmitters(ctx context.Context) ([]*entity.RegisteredEmitter, error)
	Message(ctx context.Context, emitter common.Hash, sequence uint64) (*entity.PublishedMessage, error)
	Messages(ctx context.Context, emitter common.Hash, fromSequence, limit uint64) ([]*entity.PublishedMessage, error)
	NextSequence(ctx context.Context, emitter common.Hash) (uint64, error)
	PostVAA(ctx context.Context, raw []byte) (*entity.PostedVAA, error)
	PostedVAA(ctx context.Context, key entity.VAAKey) (*entity.PostedVAA, error)
	TokenBinding(ctx context.Context, key entity.TokenBindingKey) (*entity.TokenBinding, error)
	TokenBindings(ctx context.Context) ([]*entity.TokenBinding, error)
	Vault(ctx context.Context, token common.Hash) (*entity.CustodyVault, error)
	Balance(ctx context.Context, token, owner common.Hash) (*entity.Balance, error)
	CompleteTransfer(ctx context.Context, key entity.VAAKey) (*bridge.Settlement, error)
	UpgradeGuardianSet(ctx context.Context, key entity.VAAKey) (*entity.GuardianSet, error)
}

type Presenter struct {
	logger logging.Logger
	bridge Bridge
	root   chi.Router
}

func NewPresenter(logger logging.Logger, b Bridge) *Presenter {
	p := &Presenter{
		logger: logger,
		bridge: b,
		root:   chi.NewMux(),
	}
	p.routes()
	return p
}

func (p *Presenter) Handler() http.Handler {
	return p.root
}

// Serve blocks until ctx is cancelled, then shuts the server down gracefully.
func (p *Presenter) Serve(ctx context.Context, addr string) error {
	p.logger.WithField("addr", addr).Info("starting presenter service")
	srv := &http.Server{
		Addr:              addr,
		Handler:           p.root,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		p.logger.Info("shutting down presenter service")
		return srv.Shutdown(shutdownCtx)
	}
}

func (p *Presenter) routes() {
	p.root.Use(middleware.Throttle(50))
	p.root.Use(middleware.RequestID)
	p.root.Use(httpmw.NewLoggerMiddleware(p.logger))
	p.root.Use(httpmw.Recoverer)

	p.root.Get("/state", p.wrapJSONHandler(http.StatusOK, p.GetState))

	p.root.Route("/guardian-sets", func(r chi.Router) {
		r.Get("/", p.wrapJSONHandler(http.StatusOK, p.GetGuardianSets))
		r.Get("/current", p.wrapJSONHandler(http.StatusOK, p.GetCurrentGuardianSet))
		r.Get("/{index:[0-9]+}", p.wrapJSONHandler(http.StatusOK, p.GetGuardianSet))
	})

	p.root.Route("/emitters", func(r chi.Router) {
		r.Get("/", p.wrapJSONHandler(http.StatusOK, p.GetEmitters))
		r.Route("/{emitter:0x[0-9a-fA-F]{64}}", func(r chi.Router) {
			r.With(httpmw.GetPaginationMiddleware).Get("/messages", p.wrapJSONHandler(http.StatusOK, p.GetMessages))
			r.Get("/messages/{sequence:[0-9]+}", p.wrapJSONHandler(http.StatusOK, p.GetMessage))
			r.Get("/sequence", p.wrapJSONHandler(http.StatusOK, p.GetNextSequence))
		})
	})

	p.root.Post("/vaas", p.wrapJSONHandler(http.StatusCreated, p.PostVAA))
	p.root.Get("/vaas/{chain:[0-9]+}/{emitter:0x[0-9a-fA-F]{64}}/{sequence:[0-9]+}", p.wrapJSONHandler(http.StatusOK, p.GetPostedVAA))

	p.root.Route("/bindings", func(r chi.Router) {
		r.Get("/", p.wrapJSONHandler(http.StatusOK, p.GetTokenBindings))
		r.Get("/{sourceChain:[0-9]+}/{sourceToken:0x[0-9a-fA-F]{64}}/{targetChain:[0-9]+}/{targetToken:0x[0-9a-fA-F]{64}}",
			p.wrapJSONHandler(http.StatusOK, p.GetTokenBinding))
	})

	p.root.Get("/vaults/{token:0x[0-9a-fA-F]{64}}", p.wrapJSONHandler(http.StatusOK, p.GetVault))
	p.root.Get("/balances/{token:0x[0-9a-fA-F]{64}}/{owner:0x[0-9a-fA-F]{64}}", p.wrapJSONHandler(http.StatusOK, p.GetBalance))

	p.root.Post("/transfers/complete", p.wrapJSONHandler(http.StatusOK, p.CompleteTransfer))
	p.root.Post("/governance/guardian-set-upgrade", p.wrapJSONHandler(http.StatusOK, p.UpgradeGuardianSet))
}

func (p *Presenter) wrapJSONHandler(status int, handler func(r *http.Request) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err != nil {
			code, errStatus := classifyError(err)
			render.Error(w, r, errStatus, code, err)
			return
		}
		render.JSON(w, r, status, res)
	}
}

func classifyError(err error) (string, int) {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request", http.StatusBadRequest
	}
	code := bridge.ErrorCode(err)
	switch code {
	case "not_found", "vaa_not_posted", "token_binding_not_found":
		return code, http.StatusNotFound
	case "vaa_already_posted", "vaa_already_consumed", "token_binding_exists", "emitter_exists",
		"conflict", "insufficient_balance", "insufficient_custody_balance", "token_binding_not_enabled",
		"already_initialized":
		return code, http.StatusConflict
	case "unauthorized":
		return code, http.StatusForbidden
	case "bridge_paused", "price_provider", "not_initialized":
		return code, http.StatusServiceUnavailable
	case "internal":
		return code, http.StatusInternalServerError
	default:
		return code, http.StatusBadRequest
	}
}

func (p *Presenter) GetState(r *http.Request) (interface{}, error) {
	state, err := p.bridge.State(r.Context())
	if err != nil {
		return nil, err
	}
	return &StateResult{
		ChainID:                p.bridge.ChainID(),
		TokenBridgeEmitter:     p.bridge.TokenBridgeEmitter(),
		ActiveGuardianSetIndex: state.ActiveGuardianSetIndex,
		MessageFee:             state.MessageFee,
		CollectedFees:          state.CollectedFees,
		Paused:                 state.Paused,
		Authority:              state.Authority,
	}, nil
}

func (p *Presenter) GetGuardianSets(r *http.Request) (interface{}, error) {
	sets, err := p.bridge.GuardianSets(r.Context())
	if err != nil {
		return nil, err
	}
	res := make([]*GuardianSetResult, len(sets))
	for i, set := range sets {
		res[i] = guardianSetToResult(set)
	}
	return res, nil
}

func (p *Presenter) GetCurrentGuardianSet(r *http.Request) (interface{}, error) {
	set, err := p.bridge.CurrentGuardianSet(r.Context())
	if err != nil {
		return nil, err
	}
	return guardianSetToResult(set), nil
}

func (p *Presenter) GetGuardianSet(r *http.Request) (interface{}, error) {
	index, err := parseUintParam(r, "index", 32)
	if err != nil {
		return nil, err
	}
	set, err := p.bridge.GuardianSet(r.Context(), uint32(index))
	if err != nil {
		return nil, err
	}
	return guardianSetToResult(set), nil
}

func (p *Presenter) GetEmitters(r *http.Request) (interface{}, error) {
	emitters, err := p.bridge.RegisteredEmitters(r.Context())
	if err != nil {
		return nil, err
	}
	res := make([]*EmitterResult, len(emitters))
	for i, e := range emitters {
		res[i] = &EmitterResult{Chain: e.Chain, Address: e.Address}
	}
	return res, nil
}

func (p *Presenter) GetMessages(r *http.Request) (interface{}, error) {
	emitter := common.HexToHash(chi.URLParam(r, "emitter"))
	page := httpmw.GetPagination(r.Context())

	msgs, err := p.bridge.Messages(r.Context(), emitter, page.From, page.Limit)
	if err != nil {
		return nil, err
	}
	res := make([]*MessageResult, len(msgs))
	for i, msg := range msgs {
		res[i] = messageToResult(msg)
	}
	return res, nil
}

func (p *Presenter) GetMessage(r *http.Request) (interface{}, error) {
	emitter := common.HexToHash(chi.URLParam(r, "emitter"))
	seq, err := parseUintParam(r, "sequence", 64)
	if err != nil {
		return nil, err
	}
	msg, err := p.bridge.Message(r.Context(), emitter, seq)
	if err != nil {
		return nil, err
	}
	return messageToResult(msg), nil
}

func (p *Presenter) GetNextSequence(r *http.Request) (interface{}, error) {
	emitter := common.HexToHash(chi.URLParam(r, "emitter"))
	seq, err := p.bridge.NextSequence(r.Context(), emitter)
	if err != nil {
		return nil, err
	}
	return &SequenceResult{EmitterAddress: emitter, NextSequence: seq}, nil
}

func (p *Presenter) PostVAA(r *http.Request) (interface{}, error) {
	var req PostVAARequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if len(req.VAA) == 0 {
		return nil, fmt.Errorf("vaa is required: %w", ErrInvalidRequest)
	}
	posted, err := p.bridge.PostVAA(r.Context(), req.VAA)
	if err != nil {
		return nil, err
	}
	return postedVAAToResult(posted), nil
}

func (p *Presenter) GetPostedVAA(r *http.Request) (interface{}, error) {
	chain, err := parseUintParam(r, "chain", 16)
	if err != nil {
		return nil, err
	}
	seq, err := parseUintParam(r, "sequence", 64)
	if err != nil {
		return nil, err
	}
	key := entity.VAAKey{
		EmitterChain:   uint16(chain),
		EmitterAddress: common.HexToHash(chi.URLParam(r, "emitter")),
		Sequence:       seq,
	}
	posted, err := p.bridge.PostedVAA(r.Context(), key)
	if err != nil {
		return nil, err
	}
	return postedVAAToResult(posted), nil
}

func (p *Presenter) GetTokenBindings(r *http.Request) (interface{}, error) {
	bindings, err := p.bridge.TokenBindings(r.Context())
	if err != nil {
		return nil, err
	}
	res := make([]*TokenBindingResult, len(bindings))
	for i, b := range bindings {
		res[i] = tokenBindingToResult(b)
	}
	return res, nil
}

func (p *Presenter) GetTokenBinding(r *http.Request) (interface{}, error) {
	sourceChain, err := parseUintParam(r, "sourceChain", 16)
	if err != nil {
		return nil, err
	}
	targetChain, err := parseUintParam(r, "targetChain", 16)
	if err != nil {
		return nil, err
	}
	key := entity.TokenBindingKey{
		SourceChain: uint16(sourceChain),
		SourceToken: common.HexToHash(chi.URLParam(r, "sourceToken")),
		TargetChain: uint16(targetChain),
		TargetToken: common.HexToHash(chi.URLParam(r, "targetToken")),
	}
	binding, err := p.bridge.TokenBinding(r.Context(), key)
	if err != nil {
		return nil, err
	}
	return tokenBindingToResult(binding), nil
}

func (p *Presenter) GetVault(r *http.Request) (interface{}, error) {
	vault, err := p.bridge.Vault(r.Context(), common.HexToHash(chi.URLParam(r, "token")))
	if err != nil {
		return nil, err
	}
	return &VaultResult{Token: vault.Token, Amount: vault.Amount}, nil
}

func (p *Presenter) GetBalance(r *http.Request) (interface{}, error) {
	token := common.HexToHash(chi.URLParam(r, "token"))
	owner := common.HexToHash(chi.URLParam(r, "owner"))
	balance, err := p.bridge.Balance(r.Context(), token, owner)
	if err != nil {
		return nil, err
	}
	return &BalanceResult{Token: balance.Token, Owner: balance.Owner, Amount: balance.Amount}, nil
}

func (p *Presenter) CompleteTransfer(r *http.Request) (interface{}, error) {
	var key entity.VAAKey
	if err := decodeBody(r, &key); err != nil {
		return nil, err
	}
	return p.bridge.CompleteTransfer(r.Context(), key)
}

func (p *Presenter) UpgradeGuardianSet(r *http.Request) (interface{}, error) {
	var key entity.VAAKey
	if err := decodeBody(r, &key); err != nil {
		return nil, err
	}
	set, err := p.bridge.UpgradeGuardianSet(r.Context(), key)
	if err != nil {
		return nil, err
	}
	return guardianSetToResult(set), nil
}

func parseUintParam(r *http.Request, name string, bitSize int) (uint64, error) {
	val, err := strconv.ParseUint(chi.URLParam(r, name), 10, bitSize)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %v: %w", name, err, ErrInvalidRequest)
	}
	return val, nil
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode request body: %v: %w", err, ErrInvalidRequest)
	}
	return nil
}
