package middleware

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/presenter/http/render"
)

type ctxKey int

const (
	bridgeCfgCtxKey ctxKey = iota
	sideCfgCtxKey
	nonceCtxKey
	pageCtxKey
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

var (
	ErrInvalidNonce = errors.New("invalid nonce parameter")
	ErrInvalidPage  = errors.New("invalid pagination parameter")
)

// Page is a forward-only window over ordered records.
type Page struct {
	FromID uint
	Limit  uint64
}

func GetBridgeConfigMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bridgeID := chi.URLParam(r, "bridgeID")

			bridgeCfg, ok := cfg.Bridges[bridgeID]
			if !ok || bridgeCfg == nil {
				render.NotFound(w, r, fmt.Sprintf("bridge with id %s not found", bridgeID))
				return
			}

			ctx := context.WithValue(r.Context(), bridgeCfgCtxKey, bridgeCfg)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func BridgeConfig(ctx context.Context) *config.BridgeConfig {
	if cfg, ok := ctx.Value(bridgeCfgCtxKey).(*config.BridgeConfig); ok {
		return cfg
	}
	return new(config.BridgeConfig)
}

// GetBridgeSideMiddleware resolves the chainID url parameter to a side of the
// bridge put into the context by GetBridgeConfigMiddleware.
func GetBridgeSideMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		bridgeCfg := BridgeConfig(ctx)
		chainID := chi.URLParam(r, "chainID")

		side, _, err := bridgeCfg.Side(chainID)
		if err != nil {
			render.NotFound(w, r, fmt.Sprintf("bridge %s is not deployed on chain %s", bridgeCfg.ID, chainID))
			return
		}

		logger := logging.LoggerFromContext(ctx).WithFields(logrus.Fields{
			"bridge_id": bridgeCfg.ID,
			"chain_id":  chainID,
		})
		ctx = logging.WithLogger(ctx, logger)
		ctx = context.WithValue(ctx, sideCfgCtxKey, side)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func BridgeSide(ctx context.Context) *config.BridgeSideConfig {
	if cfg, ok := ctx.Value(sideCfgCtxKey).(*config.BridgeSideConfig); ok {
		return cfg
	}
	return &config.BridgeSideConfig{Chain: new(config.ChainConfig)}
}

func GetNonceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonceStr := chi.URLParam(r, "nonce")

		nonce, ok := new(big.Int).SetString(nonceStr, 10)
		if !ok || nonce.Sign() < 0 || nonce.BitLen() > 256 {
			render.BadRequest(w, r, fmt.Errorf("%q is not a uint256: %w", nonceStr, ErrInvalidNonce))
			return
		}

		ctx := context.WithValue(r.Context(), nonceCtxKey, nonce)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func Nonce(ctx context.Context) *big.Int {
	if nonce, ok := ctx.Value(nonceCtxKey).(*big.Int); ok {
		return nonce
	}
	return new(big.Int)
}

func GetPageMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		page := &Page{Limit: DefaultPageLimit}

		if s := query.Get("fromId"); s != "" {
			fromID, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				render.BadRequest(w, r, fmt.Errorf("failed to parse fromId: %w", ErrInvalidPage))
				return
			}
			page.FromID = uint(fromID)
		}
		if s := query.Get("limit"); s != "" {
			limit, err := strconv.ParseUint(s, 10, 64)
			if err != nil || limit == 0 {
				render.BadRequest(w, r, fmt.Errorf("failed to parse limit: %w", ErrInvalidPage))
				return
			}
			if limit > MaxPageLimit {
				render.BadRequest(w, r, fmt.Errorf("cannot request more than %d records: %w", MaxPageLimit, ErrInvalidPage))
				return
			}
			page.Limit = limit
		}

		ctx := context.WithValue(r.Context(), pageCtxKey, page)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetPage(ctx context.Context) *Page {
	if page, ok := ctx.Value(pageCtxKey).(*Page); ok {
		return page
	}
	return &Page{Limit: DefaultPageLimit}
}
