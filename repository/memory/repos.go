package memory

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/entity"
)

func instanceKey(bridgeID, chainID string) string {
	return bridgeID + "/" + chainID
}

type logsCursorsRepo Store

func (r *logsCursorsRepo) Ensure(ctx context.Context, cursor *entity.LogsCursor) error {
	s := (*Store)(r)
	return s.write(ctx, func(j *journal) error {
		key := instanceKey(cursor.ChainID, cursor.Address.String())
		prev, ok := s.cursors[key]
		c := *cursor
		c.UpdatedAt = s.timestamp()
		if ok {
			c.CreatedAt = prev.CreatedAt
		} else {
			c.CreatedAt = c.UpdatedAt
		}
		s.cursors[key] = &c
		j.record(func() {
			if ok {
				s.cursors[key] = prev
			} else {
				delete(s.cursors, key)
			}
		})
		return nil
	})
}

func (r *logsCursorsRepo) GetByChainIDAndAddress(_ context.Context, chainID string, addr common.Address) (*entity.LogsCursor, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cursors[instanceKey(chainID, addr.String())]
	if !ok {
		return nil, fmt.Errorf("can't get logs cursor by chain_id and address: %w", db.ErrNotFound)
	}
	res := *c
	return &res, nil
}

type logsRepo Store

func (r *logsRepo) Ensure(ctx context.Context, logs ...*entity.Log) error {
	s := (*Store)(r)
	return s.write(ctx, func(j *journal) error {
		for _, log := range logs {
			found := false
			for _, existing := range s.logs {
				if existing.ChainID == log.ChainID && existing.BlockNumber == log.BlockNumber && existing.LogIndex == log.LogIndex {
					log.ID = existing.ID
					found = true
					break
				}
			}
			if found {
				continue
			}
			l := *log
			l.ID = uint(len(s.logs) + 1)
			l.CreatedAt = s.timestamp()
			l.UpdatedAt = l.CreatedAt
			log.ID = l.ID
			n := len(s.logs)
			s.logs = append(s.logs, &l)
			j.record(func() {
				s.logs = s.logs[:n]
			})
		}
		return nil
	})
}

func (r *logsRepo) GetByID(_ context.Context, id uint) (*entity.Log, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 || id > uint(len(s.logs)) {
		return nil, fmt.Errorf("can't get log by id: %w", db.ErrNotFound)
	}
	res := *s.logs[id-1]
	return &res, nil
}

type authorizationsRepo Store

func (r *authorizationsRepo) Ensure(ctx context.Context, auth *entity.Authorization) error {
	s := (*Store)(r)
	return s.write(ctx, func(j *journal) error {
		key := instanceKey(auth.BridgeID, auth.ChainID)
		if _, ok := s.authorizations[key]; ok {
			return nil
		}
		a := *auth
		a.CreatedAt = s.timestamp()
		a.UpdatedAt = a.CreatedAt
		s.authorizations[key] = &a
		j.record(func() {
			delete(s.authorizations, key)
		})
		return nil
	})
}

func (r *authorizationsRepo) Get(_ context.Context, bridgeID, chainID string) (*entity.Authorization, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.authorizations[instanceKey(bridgeID, chainID)]
	if !ok {
		return nil, fmt.Errorf("can't get authorization: %w", db.ErrNotFound)
	}
	res := *a
	return &res, nil
}

// Lock is the same as Get, transactions of the store are already serialized.
func (r *authorizationsRepo) Lock(ctx context.Context, bridgeID, chainID string) (*entity.Authorization, error) {
	return r.Get(ctx, bridgeID, chainID)
}

func (r *authorizationsRepo) UpdateValidator(ctx context.Context, bridgeID, chainID string, validator common.Address) error {
	s := (*Store)(r)
	return s.write(ctx, func(j *journal) error {
		key := instanceKey(bridgeID, chainID)
		prev, ok := s.authorizations[key]
		if !ok {
			return fmt.Errorf("can't update validator: %w", db.ErrNotFound)
		}
		a := *prev
		a.Validator = validator
		a.UpdatedAt = s.timestamp()
		s.authorizations[key] = &a
		j.record(func() {
			s.authorizations[key] = prev
		})
		return nil
	})
}

type redemptionsRepo Store

func (r *redemptionsRepo) Create(ctx context.Context, red *entity.Redemption) error {
	s := (*Store)(r)
	return s.write(ctx, func(j *journal) error {
		key := instanceKey(instanceKey(red.BridgeID, red.ChainID), red.Nonce.String())
		if _, ok := s.redemptions[key]; ok {
			return entity.ErrRedemptionExists
		}
		c := *red
		c.CreatedAt = s.timestamp()
		s.redemptions[key] = &c
		j.record(func() {
			delete(s.redemptions, key)
		})
		return nil
	})
}

func (r *redemptionsRepo) GetByNonce(_ context.Context, bridgeID, chainID string, nonce *entity.Numeric) (*entity.Redemption, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	red, ok := s.redemptions[instanceKey(instanceKey(bridgeID, chainID), nonce.String())]
	if !ok {
		return nil, fmt.Errorf("can't get redemption by nonce: %w", db.ErrNotFound)
	}
	res := *red
	return &res, nil
}

type bridgeEventsRepo Store

func (r *bridgeEventsRepo) Append(ctx context.Context, e *entity.BridgeEvent) error {
	s := (*Store)(r)
	return s.write(ctx, func(j *journal) error {
		c := *e
		c.ID = uint(len(s.events) + 1)
		c.CreatedAt = s.timestamp()
		n := len(s.events)
		s.events = append(s.events, &c)
		e.ID = c.ID
		e.CreatedAt = c.CreatedAt
		j.record(func() {
			s.events = s.events[:n]
		})
		return nil
	})
}

func (r *bridgeEventsRepo) Find(_ context.Context, bridgeID, chainID string, fromID uint, limit uint64) ([]*entity.BridgeEvent, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]*entity.BridgeEvent, 0, limit)
	for _, e := range s.events {
		if uint64(len(res)) >= limit {
			break
		}
		if e.ID >= fromID && e.BridgeID == bridgeID && e.ChainID == chainID {
			c := *e
			res = append(res, &c)
		}
	}
	return res, nil
}

type attestationsRepo Store

func (r *attestationsRepo) Ensure(ctx context.Context, a *entity.Attestation) error {
	s := (*Store)(r)
	return s.write(ctx, func(j *journal) error {
		key := instanceKey(a.BridgeID, a.MsgHash.String())
		prev, ok := s.attestations[key]
		c := *a
		c.UpdatedAt = s.timestamp()
		if ok {
			c.CreatedAt = prev.CreatedAt
		} else {
			c.CreatedAt = c.UpdatedAt
			s.attestOrder = append(s.attestOrder, key)
		}
		s.attestations[key] = &c
		j.record(func() {
			if ok {
				s.attestations[key] = prev
			} else {
				delete(s.attestations, key)
				s.attestOrder = s.attestOrder[:len(s.attestOrder)-1]
			}
		})
		return nil
	})
}

func (r *attestationsRepo) FindByNonce(_ context.Context, bridgeID, destChainID string, nonce *entity.Numeric) ([]*entity.Attestation, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]*entity.Attestation, 0, 1)
	for _, key := range s.attestOrder {
		a := s.attestations[key]
		if a.BridgeID == bridgeID && a.DestChainID.String() == destChainID && a.Nonce.Big().Cmp(nonce.Big()) == 0 {
			c := *a
			res = append(res, &c)
		}
	}
	return res, nil
}
