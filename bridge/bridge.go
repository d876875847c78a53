// Package bridge implements one instance of the token bridge deployed on a
// single chain: the swap initiator, the redeemer and the authorization
// registry.
//
// Every operation runs as a single transaction against the repository and is
// serialized with the other operations of the same instance.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/repository"
)

var ErrInvalidConfig = errors.New("invalid bridge instance config")

// EventHandler is notified of events committed by the instance.
type EventHandler func(ctx context.Context, event *entity.BridgeEvent)

type Bridge struct {
	mu       sync.Mutex
	cfg      *config.InstanceConfig
	chainID  string
	logger   logging.Logger
	repo     *repository.Repo
	ledger   Ledger
	registry *Registry
	handlers []EventHandler
}

func New(ctx context.Context, logger logging.Logger, repo *repository.Repo, ledger Ledger, cfg *config.InstanceConfig) (*Bridge, error) {
	if cfg.ChainID == nil || cfg.CounterpartyChainID == nil || cfg.BridgeID == "" {
		return nil, ErrInvalidConfig
	}
	if cfg.ChainID.Cmp(cfg.CounterpartyChainID) == 0 {
		return nil, fmt.Errorf("chain %s is its own counterparty: %w", cfg.ChainID, ErrInvalidConfig)
	}
	chainID := cfg.ChainID.String()
	logger = logger.WithFields(logrus.Fields{
		"bridge_id": cfg.BridgeID,
		"chain_id":  chainID,
	})
	registry, err := NewRegistry(ctx, logger, repo, cfg.BridgeID, chainID, cfg.Admin, cfg.Validator)
	if err != nil {
		return nil, err
	}
	return &Bridge{
		cfg:      cfg,
		chainID:  chainID,
		logger:   logger,
		repo:     repo,
		ledger:   ledger,
		registry: registry,
	}, nil
}

func (b *Bridge) Registry() *Registry {
	return b.registry
}

func (b *Bridge) ChainID() *big.Int {
	return new(big.Int).Set(b.cfg.ChainID)
}

func (b *Bridge) CounterpartyChainID() *big.Int {
	return new(big.Int).Set(b.cfg.CounterpartyChainID)
}

// RegisterEventHandler adds a handler called after each committed operation.
func (b *Bridge) RegisterEventHandler(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// SetValidator is Registry.SetValidator ordered with the other operations of the instance.
func (b *Bridge) SetValidator(ctx context.Context, caller, validator common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registry.SetValidator(ctx, caller, validator)
}

func (b *Bridge) notify(ctx context.Context, event *entity.BridgeEvent) {
	for _, handler := range b.handlers {
		handler(ctx, event)
	}
}

func (b *Bridge) observe(operation string, err error) {
	OperationsTotal.WithLabelValues(b.cfg.BridgeID, b.chainID, operation, operationStatus(err)).Inc()
}
