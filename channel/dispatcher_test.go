package channel

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communehq/membersearch/ai/mock"
	"github.com/communehq/membersearch/core"
	"github.com/communehq/membersearch/embedcache"
	"github.com/communehq/membersearch/extract"
	"github.com/communehq/membersearch/query"
	"github.com/communehq/membersearch/rank"
	"github.com/communehq/membersearch/resultcache"
	"github.com/communehq/membersearch/session"
	badgerstore "github.com/communehq/membersearch/storage/badger"
)

func newTestOrchestrator(t *testing.T) *query.Orchestrator {
	t.Helper()
	repo, kv, backend, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	ranker, err := rank.NewRanker(repo)
	require.NoError(t, err)
	sessions, err := session.NewKVStore(kv)
	require.NoError(t, err)

	orchestrator, err := query.NewOrchestrator(
		extract.NewChain(mock.NewMockQueryExtractor()),
		embedcache.New(mock.NewMockEmbedder(), kv),
		ranker,
		resultcache.New(kv),
		sessions,
		"test-model",
	)
	require.NoError(t, err)
	return orchestrator
}

func TestDispatchPreservesSenderOrder(t *testing.T) {
	const messages = 20

	var mu sync.Mutex
	var order []string
	handler := func(msg Message, resp *core.Response, err error) {
		assert.NoError(t, err)
		mu.Lock()
		order = append(order, msg.Text)
		mu.Unlock()
	}

	d, err := NewDispatcher(newTestOrchestrator(t), handler, WithPoolSize(4))
	require.NoError(t, err)
	defer d.Close()

	for i := 0; i < messages; i++ {
		require.NoError(t, d.Dispatch(Message{
			TenantID: "acme",
			SenderID: "user-1",
			Text:     fmt.Sprintf("hello %d", i),
		}))
	}
	d.Wait()

	require.Len(t, order, messages)
	for i, text := range order {
		assert.Equal(t, fmt.Sprintf("hello %d", i), text, "one sender's messages must stay in order")
	}
}

func TestDispatchConcurrentSenders(t *testing.T) {
	const senders = 8
	const perSender = 5

	var mu sync.Mutex
	counts := make(map[string]int)
	handler := func(msg Message, resp *core.Response, err error) {
		assert.NoError(t, err)
		mu.Lock()
		counts[msg.SenderID]++
		mu.Unlock()
	}

	d, err := NewDispatcher(newTestOrchestrator(t), handler, WithPoolSize(4))
	require.NoError(t, err)
	defer d.Close()

	for s := 0; s < senders; s++ {
		for m := 0; m < perSender; m++ {
			require.NoError(t, d.Dispatch(Message{
				TenantID: "acme",
				SenderID: fmt.Sprintf("user-%d", s),
				Text:     "hello",
			}))
		}
	}
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, counts, senders)
	for sender, n := range counts {
		assert.Equal(t, perSender, n, "sender %s lost messages", sender)
	}
}

func TestDispatchDeliversUserFacingErrors(t *testing.T) {
	var mu sync.Mutex
	var gotErr error
	handler := func(msg Message, resp *core.Response, err error) {
		mu.Lock()
		gotErr = err
		mu.Unlock()
	}

	d, err := NewDispatcher(newTestOrchestrator(t), handler, WithPoolSize(1))
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Dispatch(Message{TenantID: "acme", SenderID: "user-1", Text: ""}))
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ErrorIs(t, gotErr, core.ErrEmptyQuery)
}

func TestNewDispatcherValidation(t *testing.T) {
	_, err := NewDispatcher(nil, func(Message, *core.Response, error) {})
	assert.ErrorIs(t, err, ErrOrchestratorRequired)

	_, err = NewDispatcher(newTestOrchestrator(t), nil)
	assert.ErrorIs(t, err, ErrHandlerRequired)
}
