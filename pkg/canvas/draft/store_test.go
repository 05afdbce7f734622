package draft_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcanvas/flowcanvas/pkg/canvas/draft"
	"github.com/flowcanvas/flowcanvas/pkg/canvas/graph"
)

// chainGraph builds a linear workflow with n action nodes.
func chainGraph(t *testing.T, n int) graph.Graph {
	t.Helper()

	g := graph.New()
	var err error
	prev := ""
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("n%d", i)
		g, err = g.WithNode(graph.Node{ID: id, Kind: graph.KindAction})
		require.NoError(t, err)
		if prev != "" {
			g, err = g.WithEdge(graph.Edge{Source: prev, Target: id})
			require.NoError(t, err)
		}
		prev = id
	}
	return g
}

// storeFactory creates a store instance for testing.
type storeFactory func(t *testing.T) draft.Store

// storeContractTest runs contract tests against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	ctx := context.Background()

	t.Run(name+"/SaveAndLoad", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		g := chainGraph(t, 2)
		require.NoError(t, store.SaveDraft(ctx, "wf-1", g))

		loaded, err := store.Load(ctx, "wf-1")
		require.NoError(t, err)
		assert.True(t, graph.Equal(g, loaded))
		assert.True(t, loaded.HasNode("n0"))
	})

	t.Run(name+"/Load_NotFound", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		_, err := store.Load(ctx, "wf-nonexistent")
		assert.ErrorIs(t, err, draft.ErrNotFound)
	})

	t.Run(name+"/Versions_Accumulate", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		for i := 1; i <= 3; i++ {
			require.NoError(t, store.SaveDraft(ctx, "wf-1", chainGraph(t, i)))
		}

		infos, err := store.ListVersions(ctx, "wf-1")
		require.NoError(t, err)
		require.Len(t, infos, 3)

		for i, info := range infos {
			assert.Equal(t, i+1, info.Version)
			assert.False(t, info.SavedAt.IsZero())
			assert.Greater(t, info.Bytes, int64(0))
		}

		// Load returns the latest version
		loaded, err := store.Load(ctx, "wf-1")
		require.NoError(t, err)
		assert.Len(t, loaded.Nodes, 3)
	})

	t.Run(name+"/ListVersions_Empty", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		infos, err := store.ListVersions(ctx, "wf-nonexistent")
		require.NoError(t, err)
		assert.Empty(t, infos)
	})

	t.Run(name+"/Activate_MarksLatest", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.SaveDraft(ctx, "wf-1", chainGraph(t, 1)))
		require.NoError(t, store.SaveDraft(ctx, "wf-1", chainGraph(t, 2)))
		require.NoError(t, store.Activate(ctx, "wf-1", true))

		infos, err := store.ListVersions(ctx, "wf-1")
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.False(t, infos[0].Active)
		assert.True(t, infos[1].Active)
	})

	t.Run(name+"/Deactivate_ClearsMarker", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.SaveDraft(ctx, "wf-1", chainGraph(t, 1)))
		require.NoError(t, store.Activate(ctx, "wf-1", true))
		require.NoError(t, store.Activate(ctx, "wf-1", false))

		infos, err := store.ListVersions(ctx, "wf-1")
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.False(t, infos[0].Active)
	})

	t.Run(name+"/Activate_NotFound", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		err := store.Activate(ctx, "wf-nonexistent", true)
		assert.ErrorIs(t, err, draft.ErrNotFound)
	})

	t.Run(name+"/MultipleWorkflows", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.SaveDraft(ctx, "wf-a", chainGraph(t, 1)))
		require.NoError(t, store.SaveDraft(ctx, "wf-a", chainGraph(t, 2)))
		require.NoError(t, store.SaveDraft(ctx, "wf-b", chainGraph(t, 3)))

		infosA, err := store.ListVersions(ctx, "wf-a")
		require.NoError(t, err)
		assert.Len(t, infosA, 2)

		infosB, err := store.ListVersions(ctx, "wf-b")
		require.NoError(t, err)
		assert.Len(t, infosB, 1)

		loadedA, err := store.Load(ctx, "wf-a")
		require.NoError(t, err)
		assert.Len(t, loadedA.Nodes, 2)

		loadedB, err := store.Load(ctx, "wf-b")
		require.NoError(t, err)
		assert.Len(t, loadedB.Nodes, 3)
	})

	t.Run(name+"/EmptyGraphRoundTrip", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.SaveDraft(ctx, "wf-1", graph.New()))

		loaded, err := store.Load(ctx, "wf-1")
		require.NoError(t, err)
		assert.Empty(t, loaded.Nodes)
		assert.Empty(t, loaded.Edges)
	})

	t.Run(name+"/Close_ThenError", func(t *testing.T) {
		store := factory(t)
		require.NoError(t, store.Close())

		err := store.SaveDraft(ctx, "wf-1", graph.New())
		assert.ErrorIs(t, err, draft.ErrStoreClosed)

		_, err = store.Load(ctx, "wf-1")
		assert.ErrorIs(t, err, draft.ErrStoreClosed)

		err = store.Activate(ctx, "wf-1", true)
		assert.ErrorIs(t, err, draft.ErrStoreClosed)

		_, err = store.ListVersions(ctx, "wf-1")
		assert.ErrorIs(t, err, draft.ErrStoreClosed)
	})

	t.Run(name+"/Close_Idempotent", func(t *testing.T) {
		store := factory(t)

		assert.NoError(t, store.Close())
		assert.NoError(t, store.Close())
	})
}

// TestMemoryStoreContract runs contract tests against MemoryStore.
func TestMemoryStoreContract(t *testing.T) {
	factory := func(t *testing.T) draft.Store {
		return draft.NewMemoryStore()
	}
	storeContractTest(t, "MemoryStore", factory)
}

// TestSQLiteStoreContract runs contract tests against SQLiteStore.
func TestSQLiteStoreContract(t *testing.T) {
	factory := func(t *testing.T) draft.Store {
		store, err := draft.NewSQLiteStore(":memory:")
		require.NoError(t, err)
		return store
	}
	storeContractTest(t, "SQLiteStore", factory)
}

// TestHTTPStoreContract runs contract tests against HTTPStore backed by a
// fake persistence API.
func TestHTTPStoreContract(t *testing.T) {
	factory := func(t *testing.T) draft.Store {
		srv := newPersistenceServer(t)
		return draft.NewHTTPStore(srv.URL)
	}
	storeContractTest(t, "HTTPStore", factory)
}
