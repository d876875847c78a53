package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/repository"
)

var ErrAdminMismatch = errors.New("stored admin differs from configured admin")

// Registry holds the admin and the validator of one bridge instance.
// The admin is fixed when the instance is first created; the validator can be
// replaced by the admin only.
type Registry struct {
	logger   logging.Logger
	repo     *repository.Repo
	bridgeID string
	chainID  string
}

// NewRegistry opens the authorization state of the instance, creating it when
// absent. A nil validator defaults to admin.
func NewRegistry(ctx context.Context, logger logging.Logger, repo *repository.Repo, bridgeID, chainID string, admin common.Address, validator *common.Address) (*Registry, error) {
	initial := admin
	if validator != nil {
		initial = *validator
	}
	err := repo.Authorizations.Ensure(ctx, &entity.Authorization{
		BridgeID:  bridgeID,
		ChainID:   chainID,
		Admin:     admin,
		Validator: initial,
	})
	if err != nil {
		return nil, fmt.Errorf("can't create authorization state: %w", err)
	}
	auth, err := repo.Authorizations.Get(ctx, bridgeID, chainID)
	if err != nil {
		return nil, fmt.Errorf("can't read authorization state: %w", err)
	}
	if auth.Admin != admin {
		return nil, fmt.Errorf("bridge %s on chain %s has admin %s, configured %s: %w", bridgeID, chainID, auth.Admin, admin, ErrAdminMismatch)
	}
	logger.WithFields(logrus.Fields{
		"admin":     auth.Admin,
		"validator": auth.Validator,
	}).Info("loaded authorization state")
	return &Registry{
		logger:   logger,
		repo:     repo,
		bridgeID: bridgeID,
		chainID:  chainID,
	}, nil
}

func (r *Registry) Admin(ctx context.Context) (common.Address, error) {
	auth, err := r.repo.Authorizations.Get(ctx, r.bridgeID, r.chainID)
	if err != nil {
		return common.Address{}, fmt.Errorf("can't read admin: %w", err)
	}
	return auth.Admin, nil
}

func (r *Registry) Validator(ctx context.Context) (common.Address, error) {
	auth, err := r.repo.Authorizations.Get(ctx, r.bridgeID, r.chainID)
	if err != nil {
		return common.Address{}, fmt.Errorf("can't read validator: %w", err)
	}
	return auth.Validator, nil
}

// SetValidator replaces the validator. Only the admin may call it.
func (r *Registry) SetValidator(ctx context.Context, caller, validator common.Address) error {
	err := r.repo.Transactor.RunInTx(ctx, func(ctx context.Context) error {
		auth, err := r.repo.Authorizations.Lock(ctx, r.bridgeID, r.chainID)
		if err != nil {
			return fmt.Errorf("can't lock authorization state: %w", err)
		}
		if caller != auth.Admin {
			return ErrUnauthorized
		}
		if err = r.repo.Authorizations.UpdateValidator(ctx, r.bridgeID, r.chainID, validator); err != nil {
			return fmt.Errorf("can't update validator: %w", err)
		}
		return nil
	})
	OperationsTotal.WithLabelValues(r.bridgeID, r.chainID, OperationSetValidator, operationStatus(err)).Inc()
	if err != nil {
		r.logger.WithError(err).WithField("caller", caller).Warn("validator change rejected")
		return err
	}
	r.logger.WithFields(logrus.Fields{
		"caller":    caller,
		"validator": validator,
	}).Info("validator changed")
	return nil
}

// lockedValidator reads the validator within the caller's transaction,
// holding the authorization row until it ends.
func (r *Registry) lockedValidator(ctx context.Context) (common.Address, error) {
	auth, err := r.repo.Authorizations.Lock(ctx, r.bridgeID, r.chainID)
	if err != nil {
		return common.Address{}, fmt.Errorf("can't lock authorization state: %w", err)
	}
	return auth.Validator, nil
}
