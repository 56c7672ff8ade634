package search

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"soundwave/internal/model"
	"soundwave/internal/repository/postgres"
)

type fakeIndex struct {
	indexed  map[string][]int64
	deleted  map[string][]int64
	indexErr error
	queryErr error

	queryIDs   []int64
	queryTotal int64
}

var _ Index = (*fakeIndex)(nil)

func (f *fakeIndex) IndexDocument(_ context.Context, index string, id int64, _ map[string]string) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	if f.indexed == nil {
		f.indexed = map[string][]int64{}
	}
	f.indexed[index] = append(f.indexed[index], id)
	return nil
}

func (f *fakeIndex) DeleteDocument(_ context.Context, index string, id int64) error {
	if f.deleted == nil {
		f.deleted = map[string][]int64{}
	}
	f.deleted[index] = append(f.deleted[index], id)
	return nil
}

func (f *fakeIndex) Query(context.Context, string, string, int, int) ([]int64, int64, error) {
	if f.queryErr != nil {
		return nil, 0, f.queryErr
	}
	return f.queryIDs, f.queryTotal, nil
}

func (f *fakeIndex) CreateIndex(context.Context, string) error { return nil }

func TestSynchronizer_HookPushesAfterCommit(t *testing.T) {
	t.Parallel()
	idx := &fakeIndex{}
	s := NewSynchronizer(idx, zap.NewNop())
	hook := s.Hook()

	cs := postgres.ChangeSet{
		Added:   []model.Searchable{&model.Song{ID: 1, Name: "one"}},
		Updated: []model.Searchable{&model.Song{ID: 2, Name: "two"}},
		Deleted: []model.Searchable{&model.Song{ID: 3, Name: "three"}},
	}
	post := hook(cs)
	if post == nil {
		t.Fatalf("hook must return a post-commit func")
	}
	if len(idx.indexed) != 0 || len(idx.deleted) != 0 {
		t.Fatalf("nothing may reach the index before commit")
	}

	post(context.Background())
	if got := idx.indexed["songs"]; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("indexed = %v", got)
	}
	if got := idx.deleted["songs"]; len(got) != 1 || got[0] != 3 {
		t.Fatalf("deleted = %v", got)
	}
}

func TestSynchronizer_AbortedTxNeverReachesIndex(t *testing.T) {
	t.Parallel()
	idx := &fakeIndex{}
	s := NewSynchronizer(idx, zap.NewNop())
	hook := s.Hook()

	// The store drops the returned func when the transaction rolls back.
	_ = hook(postgres.ChangeSet{Added: []model.Searchable{&model.Song{ID: 9}}})

	if len(idx.indexed) != 0 {
		t.Fatalf("rolled-back change leaked into the index: %v", idx.indexed)
	}
}

func TestSynchronizer_PushSwallowsIndexErrors(t *testing.T) {
	t.Parallel()
	idx := &fakeIndex{indexErr: errors.New("index down")}
	s := NewSynchronizer(idx, zap.NewNop())

	post := s.Hook()(postgres.ChangeSet{Added: []model.Searchable{&model.Song{ID: 1}}})
	post(context.Background()) // must not panic or propagate
}

func TestSynchronizer_Query(t *testing.T) {
	t.Parallel()
	idx := &fakeIndex{queryIDs: []int64{5, 2}, queryTotal: 7}
	s := NewSynchronizer(idx, zap.NewNop())

	ids, total := s.Query(context.Background(), "songs", "midnight", 0, 10)
	if total != 7 || len(ids) != 2 || ids[0] != 5 {
		t.Fatalf("ids=%v total=%d", ids, total)
	}

	idx.queryErr = errors.New("index down")
	ids, total = s.Query(context.Background(), "songs", "midnight", 0, 10)
	if len(ids) != 0 || total != 0 {
		t.Fatalf("outage must read as no matches, got ids=%v total=%d", ids, total)
	}
}

func TestSynchronizer_Reindex(t *testing.T) {
	t.Parallel()
	idx := &fakeIndex{}
	s := NewSynchronizer(idx, zap.NewNop())

	entities := []model.Searchable{&model.Song{ID: 1}, &model.Song{ID: 2}}
	if err := s.Reindex(context.Background(), entities); err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if got := idx.indexed["songs"]; len(got) != 2 {
		t.Fatalf("indexed = %v", got)
	}

	idx.indexErr = errors.New("index down")
	if err := s.Reindex(context.Background(), entities); err == nil {
		t.Fatalf("explicit reindex must surface index errors")
	}
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	got := tokenize("Midnight Train, midnight-TRAIN 42!")
	want := []string{"midnight", "train", "42"}
	if len(got) != len(want) {
		t.Fatalf("tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tokenize = %v, want %v", got, want)
		}
	}

	if n := len(tokenize("  ,,:  ")); n != 0 {
		t.Fatalf("punctuation-only text must yield no tokens, got %d", n)
	}
}

func TestNoopIndex(t *testing.T) {
	t.Parallel()
	var idx Index = NoopIndex{}
	ctx := context.Background()

	if err := idx.IndexDocument(ctx, "songs", 1, nil); err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}
	if err := idx.DeleteDocument(ctx, "songs", 1); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	ids, total, err := idx.Query(ctx, "songs", "anything", 0, 10)
	if err != nil || len(ids) != 0 || total != 0 {
		t.Fatalf("noop query must match nothing: ids=%v total=%d err=%v", ids, total, err)
	}
}
