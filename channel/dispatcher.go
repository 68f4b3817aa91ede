// Copyright 2025 Commune Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package channel adapts inbound messaging-channel events to the query
// pipeline. Messages from different senders process concurrently on a worker
// pool; messages from one sender stay in order.
package channel

import (
	"context"
	"runtime"
	"sync"

	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/communehq/membersearch/core"
	"github.com/communehq/membersearch/query"
)

// Message is one inbound channel event.
type Message struct {
	TenantID core.TenantID
	SenderID string
	Text     string
}

// Handler receives the pipeline's outcome for one message. Exactly one of
// response and err is meaningful.
type Handler func(msg Message, response *core.Response, err error)

// Dispatcher fans inbound messages onto a worker pool. A per-sender queue
// serializes each sender's messages, so a user who sends a question and a
// follow-up sees them answered in order even under load.
type Dispatcher struct {
	orchestrator *query.Orchestrator
	pool         *ants.Pool
	handler      Handler
	logger       *slog.Logger

	mu      sync.Mutex
	senders map[string]*senderQueue
	wg      sync.WaitGroup
}

type senderQueue struct {
	pending []Message
	running bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher) error

// WithPoolSize sets the worker pool size.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(d *Dispatcher) error {
		if size < 1 {
			size = 1
		}
		if d.pool != nil {
			d.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		d.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// NewDispatcher creates a dispatcher delivering outcomes to handler.
func NewDispatcher(orchestrator *query.Orchestrator, handler Handler, opts ...Option) (*Dispatcher, error) {
	if orchestrator == nil {
		return nil, ErrOrchestratorRequired
	}
	if handler == nil {
		return nil, ErrHandlerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{
		orchestrator: orchestrator,
		pool:         pool,
		handler:      handler,
		logger:       slog.Default().With("component", "channel"),
		senders:      make(map[string]*senderQueue),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			d.pool.Release()
			return nil, err
		}
	}
	return d, nil
}

// Dispatch enqueues one message. It never blocks on pipeline work: the
// message joins the sender's queue and a pool worker drains it.
func (d *Dispatcher) Dispatch(msg Message) error {
	key := string(msg.TenantID) + "/" + msg.SenderID

	d.mu.Lock()
	q, ok := d.senders[key]
	if !ok {
		q = &senderQueue{}
		d.senders[key] = q
	}
	q.pending = append(q.pending, msg)
	start := !q.running
	if start {
		q.running = true
	}
	d.mu.Unlock()

	if !start {
		return nil
	}

	d.wg.Add(1)
	if err := d.pool.Submit(func() { d.drain(key) }); err != nil {
		d.wg.Done()
		d.mu.Lock()
		q.running = false
		d.mu.Unlock()
		return err
	}
	return nil
}

// drain processes the sender's queue to exhaustion, then parks. One drain
// holds the sender's FIFO at a time.
func (d *Dispatcher) drain(key string) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.senders[key]
		if len(q.pending) == 0 {
			q.running = false
			delete(d.senders, key)
			d.mu.Unlock()
			return
		}
		msg := q.pending[0]
		q.pending = q.pending[1:]
		d.mu.Unlock()

		resp, err := d.orchestrator.Handle(context.Background(), msg.TenantID, msg.SenderID, msg.Text)
		if err != nil && !query.IsUserFacing(err) {
			d.logger.Error("message handling failed", "tenant", msg.TenantID, "sender", msg.SenderID, "error", err)
		}
		d.handler(msg, resp, err)
	}
}

// Wait blocks until every queued message has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close drains outstanding work and releases the pool.
func (d *Dispatcher) Close() {
	d.wg.Wait()
	d.pool.Release()
}
