package attestation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/ethclient"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/message"
	"github.com/omni/tokenbridge-core/repository"
)

// Service attests swaps in both directions of a single bridge.
type Service struct {
	cfg            *config.BridgeConfig
	logger         logging.Logger
	homeWatcher    *Watcher
	foreignWatcher *Watcher
}

func NewService(ctx context.Context, logger logging.Logger, repo *repository.Repo, cfg *config.BridgeConfig, homeClient, foreignClient ethclient.Client, signer message.Signer) (*Service, error) {
	logger.Info("initializing bridge attestation service")
	homeWatcher, err := NewWatcher(ctx, logger.WithField("contract", "home"), repo, cfg, cfg.Home, homeClient, signer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize home side watcher: %w", err)
	}
	foreignWatcher, err := NewWatcher(ctx, logger.WithField("contract", "foreign"), repo, cfg, cfg.Foreign, foreignClient, signer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize foreign side watcher: %w", err)
	}
	return &Service{
		cfg:            cfg,
		logger:         logger,
		homeWatcher:    homeWatcher,
		foreignWatcher: foreignWatcher,
	}, nil
}

// CheckValidators compares the signer with the validator of each bridge contract.
func (s *Service) CheckValidators(ctx context.Context) {
	if err := s.homeWatcher.CheckValidator(ctx, s.foreignWatcher.Contract()); err != nil {
		s.logger.WithError(err).Warn("can't read foreign side validator")
	}
	if err := s.foreignWatcher.CheckValidator(ctx, s.homeWatcher.Contract()); err != nil {
		s.logger.WithError(err).Warn("can't read home side validator")
	}
}

// Run blocks until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("starting bridge attestation service")
	s.CheckValidators(ctx)
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range [2]*Watcher{s.homeWatcher, s.foreignWatcher} {
		w := w
		g.Go(func() error {
			w.Run(ctx)
			return nil
		})
	}
	return g.Wait()
}
