package search

import (
	"context"

	"go.uber.org/zap"

	"soundwave/internal/model"
	"soundwave/internal/repository/postgres"
)

// Synchronizer pushes committed store mutations into the external index.
// It registers against the store's commit hook: the snapshot is taken right
// before commit and the push happens strictly after a successful commit, so
// rolled-back data never reaches the index. Index failures are logged and
// swallowed; the primary store stays the source of truth.
type Synchronizer struct {
	index Index
	log   *zap.Logger
}

// NewSynchronizer constructs a synchronizer over the given index. Pass a
// NoopIndex when search is unconfigured.
func NewSynchronizer(index Index, log *zap.Logger) *Synchronizer {
	return &Synchronizer{index: index, log: log}
}

// stage is one transaction's staged change set. It moves through
// staged -> pushed once the owning transaction commits; an aborted
// transaction simply drops it.
type stage struct {
	sync    *Synchronizer
	added   []model.Searchable
	updated []model.Searchable
	deleted []model.Searchable
}

// Hook adapts the synchronizer to the store's commit hook. Each transaction
// gets its own stage, so concurrent requests never share staging state.
func (s *Synchronizer) Hook() postgres.CommitHook {
	return func(cs postgres.ChangeSet) postgres.PostCommitFunc {
		st := &stage{sync: s, added: cs.Added, updated: cs.Updated, deleted: cs.Deleted}
		return st.push
	}
}

// push upserts added and updated documents and removes deleted ones.
func (st *stage) push(ctx context.Context) {
	s := st.sync
	for _, e := range st.added {
		if err := s.index.IndexDocument(ctx, e.TableName(), e.PrimaryKey(), e.SearchableFields()); err != nil {
			s.log.Warn("index add failed", zap.String("index", e.TableName()),
				zap.Int64("id", e.PrimaryKey()), zap.Error(err))
		}
	}
	for _, e := range st.updated {
		if err := s.index.IndexDocument(ctx, e.TableName(), e.PrimaryKey(), e.SearchableFields()); err != nil {
			s.log.Warn("index update failed", zap.String("index", e.TableName()),
				zap.Int64("id", e.PrimaryKey()), zap.Error(err))
		}
	}
	for _, e := range st.deleted {
		if err := s.index.DeleteDocument(ctx, e.TableName(), e.PrimaryKey()); err != nil {
			s.log.Warn("index delete failed", zap.String("index", e.TableName()),
				zap.Int64("id", e.PrimaryKey()), zap.Error(err))
		}
	}
}

// Query delegates ranking to the index. Zero matches mean an empty result,
// not an error; an index outage is treated the same way (logged only).
func (s *Synchronizer) Query(ctx context.Context, index, text string, offset, limit int) ([]int64, int64) {
	ids, total, err := s.index.Query(ctx, index, text, offset, limit)
	if err != nil {
		s.log.Warn("index query failed", zap.String("index", index), zap.Error(err))
		return nil, 0
	}
	return ids, total
}

// Reindex re-upserts every given entity, for recovery after index loss.
func (s *Synchronizer) Reindex(ctx context.Context, entities []model.Searchable) error {
	for _, e := range entities {
		if err := s.index.IndexDocument(ctx, e.TableName(), e.PrimaryKey(), e.SearchableFields()); err != nil {
			return err
		}
	}
	return nil
}

// CreateIndex prepares the index for an entity type.
func (s *Synchronizer) CreateIndex(ctx context.Context, index string) error {
	return s.index.CreateIndex(ctx, index)
}
