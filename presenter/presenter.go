// Package presenter is the read-only HTTP API over the bridge state and the
// collected attestations.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/message"
	"github.com/omni/tokenbridge-core/presenter/http/middleware"
	"github.com/omni/tokenbridge-core/presenter/http/render"
	"github.com/omni/tokenbridge-core/repository"
)

const maxConcurrentRequests = 5

type Presenter struct {
	logger logging.Logger
	repo   *repository.Repo
	cfg    *config.Config
	root   chi.Router
}

func NewPresenter(logger logging.Logger, repo *repository.Repo, cfg *config.Config) *Presenter {
	p := &Presenter{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
		root:   chi.NewMux(),
	}
	p.root.Use(chimiddleware.Throttle(maxConcurrentRequests))
	p.root.Use(chimiddleware.RequestID)
	p.root.Use(middleware.NewLoggerMiddleware(logger))
	p.root.Use(middleware.Recoverer)

	p.root.Route("/bridge/{bridgeID:[0-9a-zA-Z_\\-]+}/{chainID:[0-9]+}", func(r chi.Router) {
		r.Use(middleware.GetBridgeConfigMiddleware(cfg))
		r.Use(middleware.GetBridgeSideMiddleware)

		r.Get("/authorization", p.wrapJSONHandler(p.GetAuthorization))
		r.With(middleware.GetPageMiddleware).Get("/events", p.wrapJSONHandler(p.FindEvents))
		r.With(middleware.GetNonceMiddleware).Get("/redemptions/{nonce}", p.wrapJSONHandler(p.GetRedemption))
		r.With(middleware.GetNonceMiddleware).Get("/attestations/{nonce}", p.wrapJSONHandler(p.FindAttestations))
	})
	return p
}

func (p *Presenter) Serve(addr string) error {
	p.logger.WithField("addr", addr).Info("starting presenter service")
	return http.ListenAndServe(addr, p.root)
}

func (p *Presenter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.root.ServeHTTP(w, r)
}

func (p *Presenter) wrapJSONHandler(handler func(ctx context.Context) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r.Context())
		if err != nil {
			render.Error(w, r, err)
			return
		}
		render.JSON(w, r, http.StatusOK, res)
	}
}

func (p *Presenter) GetAuthorization(ctx context.Context) (interface{}, error) {
	bridgeCfg := middleware.BridgeConfig(ctx)
	side := middleware.BridgeSide(ctx)

	auth, err := p.repo.Authorizations.Get(ctx, bridgeCfg.ID, side.Chain.ChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bridge authorization: %w", err)
	}
	return &AuthorizationResult{
		BridgeID:  auth.BridgeID,
		ChainID:   auth.ChainID,
		Contract:  side.Address,
		Admin:     auth.Admin,
		Validator: auth.Validator,
		UpdatedAt: auth.UpdatedAt,
	}, nil
}

func (p *Presenter) GetRedemption(ctx context.Context) (interface{}, error) {
	bridgeCfg := middleware.BridgeConfig(ctx)
	side := middleware.BridgeSide(ctx)
	nonce := entity.NewNumeric(middleware.Nonce(ctx))

	res := &RedemptionResult{
		BridgeID: bridgeCfg.ID,
		ChainID:  side.Chain.ChainID,
		Nonce:    nonce,
	}
	red, err := p.repo.Redemptions.GetByNonce(ctx, bridgeCfg.ID, side.Chain.ChainID, nonce)
	if errors.Is(err, db.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get redemption: %w", err)
	}
	res.Redeemed = true
	res.Redemption = redemptionToInfo(red)
	return res, nil
}

func (p *Presenter) FindEvents(ctx context.Context) (interface{}, error) {
	bridgeCfg := middleware.BridgeConfig(ctx)
	side := middleware.BridgeSide(ctx)
	page := middleware.GetPage(ctx)

	events, err := p.repo.BridgeEvents.Find(ctx, bridgeCfg.ID, side.Chain.ChainID, page.FromID, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find bridge events: %w", err)
	}
	res := &EventsResult{
		BridgeID: bridgeCfg.ID,
		ChainID:  side.Chain.ChainID,
		Events:   make([]*EventInfo, 0, len(events)),
	}
	for _, e := range events {
		res.Events = append(res.Events, eventToInfo(e))
	}
	if n := len(events); n > 0 && uint64(n) == page.Limit {
		res.NextFromID = events[n-1].ID + 1
	}
	return res, nil
}

// FindAttestations lists the signatures collected for swaps redeemable on the
// requested chain under the given nonce.
func (p *Presenter) FindAttestations(ctx context.Context) (interface{}, error) {
	bridgeCfg := middleware.BridgeConfig(ctx)
	side := middleware.BridgeSide(ctx)
	nonce := entity.NewNumeric(middleware.Nonce(ctx))

	attestations, err := p.repo.Attestations.FindByNonce(ctx, bridgeCfg.ID, side.Chain.ChainID, nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to find attestations: %w", err)
	}
	res := &AttestationsResult{
		BridgeID:     bridgeCfg.ID,
		DestChainID:  side.Chain.ChainID,
		Nonce:        nonce,
		Attestations: make([]*AttestationInfo, 0, len(attestations)),
	}
	for _, a := range attestations {
		info, err := p.attestationToInfo(ctx, a)
		if err != nil {
			return nil, err
		}
		res.Attestations = append(res.Attestations, info)
	}
	return res, nil
}

func (p *Presenter) attestationToInfo(ctx context.Context, a *entity.Attestation) (*AttestationInfo, error) {
	sig, err := message.SignatureFromBytes(a.Signature)
	if err != nil {
		return nil, fmt.Errorf("stored attestation %s has malformed signature: %w", a.MsgHash, err)
	}
	info := &AttestationInfo{
		MsgHash:      a.MsgHash,
		Swap:         recordToSwapInfo(a.Record()),
		Signer:       a.Signer,
		Signature:    &sig,
		SignatureHex: sig.String(),
	}
	if a.LogID == 0 {
		return info, nil
	}
	log, err := p.repo.Logs.GetByID(ctx, a.LogID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return info, nil
		}
		return nil, fmt.Errorf("failed to get attestation log: %w", err)
	}
	info.Tx = logToTxInfo(log)
	return info, nil
}
