package snapshot

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/screwyprof/stakesnap/pkg/clock"
	"github.com/screwyprof/stakesnap/pkg/fanout"
)

// Option configures the Service
// ------------------------------------------------
type Option func(*Service)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithMetrics records run metrics into m
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service takes one staking snapshot across all configured chains
// ----------------------------------------------------------------
type Service struct {
	cfg     Config
	clients ClientFactory
	codec   AddressReencoder
	writer  ReportWriter
	clock   Clock
	metrics *Metrics
	workers *fanout.Pool
	chains  *fanout.Pool
	events  chan Event
	done    chan struct{}
	once    sync.Once
}

// NewService constructs a Service with required dependencies and options
// ---------------------------------------------------------------------
// Network work of all chains shares one pool of cfg.MaxWorkers slots; cfg.MaxConcurrentChains only bounds how many
// chains are coordinated at once.
func NewService(cfg Config, clients ClientFactory, codec AddressReencoder, writer ReportWriter, opts ...Option) *Service {
	s := &Service{
		cfg:     cfg,
		clients: clients,
		codec:   codec,
		writer:  writer,
		clock:   clock.SystemClock{},
		workers: fanout.NewPool(cfg.MaxWorkers),
		chains:  fanout.NewPool(cfg.MaxConcurrentChains),
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(prometheus.NewRegistry())
	}
	return s
}

// Start launches the snapshot and returns the events channel and done channel.
//
// The events channel must be drained (see NewSubscriber); it is closed once the run is over.
// The run ends with exactly one SnapshotDone or SnapshotError event.
// A Service runs once; later calls return the same channels without starting another run.
//
// Example:
//
//	events, done := service.Start(ctx)
//	closer := snapshot.NewSubscriber(events, snapshot.OnSnapshotDone(...))
//	<-done
//	closer()
func (s *Service) Start(ctx context.Context) (<-chan Event, <-chan struct{}) {
	s.once.Do(func() {
		go func() {
			defer close(s.done)
			defer close(s.events)
			s.run(ctx)
		}()
	})
	return s.events, s.done
}

// run processes all chains, merges the results and hands the report to the writer
// -------------------------------------------------------------------------------
func (s *Service) run(ctx context.Context) {
	start := s.clock.Now()
	s.emit(SnapshotStarted{
		StartedAt:  start,
		Chains:     len(s.cfg.Chains),
		MaxWorkers: s.workers.Size(),
	})

	tasks := make([]fanout.Task[ChainResult], len(s.cfg.Chains))
	for i, chain := range s.cfg.Chains {
		tasks[i] = func(ctx context.Context) (ChainResult, error) {
			return s.processChain(ctx, chain), nil
		}
	}
	outcomes := fanout.Map(ctx, s.chains, tasks)

	// A cancelled run is partial and never reaches the writer
	if err := ctx.Err(); err != nil {
		s.emit(SnapshotError{Err: fmt.Errorf("%w: %w", ErrSnapshotCancelled, err)})
		return
	}

	results := make([]ChainResult, len(outcomes))
	for i, o := range outcomes {
		if o.Err != nil {
			name := s.cfg.Chains[i].Name
			err := fmt.Errorf("%w: %w", ErrChainPanicked, o.Err)
			results[i] = ChainResult{Chain: name, State: StateAborted, Err: err}
			s.metrics.chainAborted(name)
			s.emit(ChainAborted{Chain: name, Err: err})
			continue
		}
		results[i] = o.Value
	}

	report := BuildReport(start, s.cfg.OutputPrefix, results)
	if err := s.writer.WriteReport(ctx, report); err != nil {
		s.emit(SnapshotError{Err: fmt.Errorf("%w: %w", ErrReportWrite, err)})
		return
	}

	finished := s.clock.Now()
	s.metrics.snapshotSucceeded(finished)
	s.emit(SnapshotDone{Report: report, Duration: finished.Sub(start)})
}

func (s *Service) emit(ev Event) {
	s.events <- ev
}
