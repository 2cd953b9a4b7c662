/*
Package inject runs automatic context injection off the hot path.

The injector accepts incoming messages fire-and-forget: the caller's
interaction loop never waits on gating or retrieval. A background worker
applies both gate stages (relevance score, then the rate limiter) and,
only when both pass, runs the retrieval engine with a soft timeout.
Results past the timeout are discarded rather than delivered late, and
an empty result is completely silent: injection is advisory and
unsolicited, so it never surfaces its own absence.
*/
package inject

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/dmvu/recall/internal/gate"
	"github.com/dmvu/recall/internal/search"
)

const (
	// queueSize is the request queue buffer. A full queue drops
	// requests; injection is advisory, so losing one is fine.
	queueSize = 64

	// DefaultSoftTimeout bounds how long a retrieval may take before
	// its output is discarded.
	DefaultSoftTimeout = 3 * time.Second
)

// Config tunes the injection worker. Zero values fall back to the
// package defaults.
type Config struct {
	// Vocabulary and Threshold drive the relevance stage.
	Vocabulary gate.Vocabulary
	Threshold  int

	// SearchLimit caps how many results one injection may carry.
	SearchLimit int

	// SoftTimeout bounds retrieval; late results are discarded.
	SoftTimeout time.Duration
}

// Request is one incoming message with its surrounding activity.
type Request struct {
	Message  string
	Project  string
	Activity gate.Activity
}

// Sink receives the formatted context block when injection fires.
type Sink func(block string)

// Injector is the background auto-injection worker.
type Injector struct {
	engine  *search.Engine
	cfg     Config
	limiter *gate.Limiter
	sink    Sink

	queue    chan Request
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates and starts an injector.
func New(engine *search.Engine, cfg Config, limiter *gate.Limiter, sink Sink) *Injector {
	if cfg.SoftTimeout <= 0 {
		cfg.SoftTimeout = DefaultSoftTimeout
	}

	inj := &Injector{
		engine:   engine,
		cfg:      cfg,
		limiter:  limiter,
		sink:     sink,
		queue:    make(chan Request, queueSize),
		stopChan: make(chan struct{}),
	}

	inj.wg.Add(1)
	go inj.process()

	return inj
}

// Submit queues a message for gating (non-blocking).
// If the queue is full, the request is dropped and a warning is logged.
func (inj *Injector) Submit(req Request) {
	select {
	case inj.queue <- req:
	default:
		log.Printf("Warning: injection queue full, dropping message")
	}
}

// Stop shuts down the worker after draining queued requests.
func (inj *Injector) Stop() {
	inj.stopOnce.Do(func() {
		close(inj.stopChan)
		inj.wg.Wait()
	})
}

func (inj *Injector) process() {
	defer inj.wg.Done()

	for {
		select {
		case req := <-inj.queue:
			inj.handle(req)

		case <-inj.stopChan:
			// Drain whatever is already queued, then exit.
			for {
				select {
				case req := <-inj.queue:
					inj.handle(req)
				default:
					return
				}
			}
		}
	}
}

// handle applies both gate stages, then runs a time-bounded retrieval.
func (inj *Injector) handle(req Request) {
	decision := gate.Score(req.Message, req.Activity, inj.cfg.Vocabulary, inj.cfg.Threshold)
	if !decision.Allow {
		return
	}

	allow, err := inj.limiter.Tick(time.Now())
	if err != nil {
		log.Printf("Warning: rate limiter unavailable, skipping injection: %v", err)
		return
	}
	if !allow {
		return
	}

	query := req.Message
	if len(decision.MatchedKeywords) > 0 {
		// Matched keywords make a tighter query than the raw message.
		query = strings.Join(decision.MatchedKeywords, " ")
	}

	done := make(chan search.Results, 1)
	go func() {
		results, err := inj.engine.Search(query, search.Options{
			Project: req.Project,
			Limit:   inj.cfg.SearchLimit,
		})
		if err != nil {
			log.Printf("Warning: injection search failed: %v", err)
			done <- search.Results{}
			return
		}
		done <- results
	}()

	select {
	case results := <-done:
		if results.Empty() {
			return
		}
		inj.sink(search.Format(results))

	case <-time.After(inj.cfg.SoftTimeout):
		// Too slow to be useful; the result is discarded when it
		// eventually arrives.
		log.Printf("Warning: injection search timed out after %v", inj.cfg.SoftTimeout)
	}
}
