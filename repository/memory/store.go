// Package memory keeps repository state in process memory. It backs tests
// and single-process deployments that do not need postgres.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/repository"
)

type journalCtxKey struct{}

type journal struct {
	undo []func()
}

// Store is a transactional in-memory store. Transactions are serialized and
// rolled back with an undo journal, so a failed transaction leaves no trace.
// Reads outside a transaction may observe writes of a transaction in flight.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	now  func() time.Time

	cursors        map[string]*entity.LogsCursor
	logs           []*entity.Log
	authorizations map[string]*entity.Authorization
	redemptions    map[string]*entity.Redemption
	events         []*entity.BridgeEvent
	attestations   map[string]*entity.Attestation
	attestOrder    []string
}

func NewStore() *Store {
	return &Store{
		now:            time.Now,
		cursors:        make(map[string]*entity.LogsCursor),
		authorizations: make(map[string]*entity.Authorization),
		redemptions:    make(map[string]*entity.Redemption),
		attestations:   make(map[string]*entity.Attestation),
	}
}

func NewRepo() *repository.Repo {
	return NewStore().Repo()
}

func (s *Store) Repo() *repository.Repo {
	return &repository.Repo{
		Transactor:     s,
		LogsCursors:    (*logsCursorsRepo)(s),
		Logs:           (*logsRepo)(s),
		Authorizations: (*authorizationsRepo)(s),
		Redemptions:    (*redemptionsRepo)(s),
		BridgeEvents:   (*bridgeEventsRepo)(s),
		Attestations:   (*attestationsRepo)(s),
	}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(journalCtxKey{}).(*journal); ok {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	j := new(journal)
	if err := fn(context.WithValue(ctx, journalCtxKey{}, j)); err != nil {
		s.mu.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// write runs fn under the data lock, inside the caller's transaction when
// there is one, otherwise inside a transaction of its own.
func (s *Store) write(ctx context.Context, fn func(j *journal) error) error {
	return s.RunInTx(ctx, func(ctx context.Context) error {
		j, _ := ctx.Value(journalCtxKey{}).(*journal)
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(j)
	})
}

func (j *journal) record(undo func()) {
	j.undo = append(j.undo, undo)
}

func (s *Store) timestamp() *time.Time {
	t := s.now()
	return &t
}
