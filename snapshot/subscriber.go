package snapshot

// Subscriber handles event subscriptions.
type Subscriber struct {
	done                    chan struct{}
	snapshotStartedHandler  func(SnapshotStarted)
	chainStateHandler       func(ChainStateChanged)
	validatorsListedHandler func(ValidatorsListed)
	fetchRetriedHandler     func(FetchRetried)
	validatorDroppedHandler func(ValidatorDropped)
	delegatorDroppedHandler func(DelegatorDropped)
	chainAbortedHandler     func(ChainAborted)
	chainDoneHandler        func(ChainDone)
	snapshotDoneHandler     func(SnapshotDone)
	snapshotErrorHandler    func(SnapshotError)
}

// OnSnapshotStarted sets the handler for SnapshotStarted events
func OnSnapshotStarted(fn func(SnapshotStarted)) func(*Subscriber) {
	return func(s *Subscriber) { s.snapshotStartedHandler = fn }
}

// OnChainStateChanged sets the handler for ChainStateChanged events
func OnChainStateChanged(fn func(ChainStateChanged)) func(*Subscriber) {
	return func(s *Subscriber) { s.chainStateHandler = fn }
}

// OnValidatorsListed sets the handler for ValidatorsListed events
func OnValidatorsListed(fn func(ValidatorsListed)) func(*Subscriber) {
	return func(s *Subscriber) { s.validatorsListedHandler = fn }
}

// OnFetchRetried sets the handler for FetchRetried events
func OnFetchRetried(fn func(FetchRetried)) func(*Subscriber) {
	return func(s *Subscriber) { s.fetchRetriedHandler = fn }
}

// OnValidatorDropped sets the handler for ValidatorDropped events
func OnValidatorDropped(fn func(ValidatorDropped)) func(*Subscriber) {
	return func(s *Subscriber) { s.validatorDroppedHandler = fn }
}

// OnDelegatorDropped sets the handler for DelegatorDropped events
func OnDelegatorDropped(fn func(DelegatorDropped)) func(*Subscriber) {
	return func(s *Subscriber) { s.delegatorDroppedHandler = fn }
}

// OnChainAborted sets the handler for ChainAborted events
func OnChainAborted(fn func(ChainAborted)) func(*Subscriber) {
	return func(s *Subscriber) { s.chainAbortedHandler = fn }
}

// OnChainDone sets the handler for ChainDone events
func OnChainDone(fn func(ChainDone)) func(*Subscriber) {
	return func(s *Subscriber) { s.chainDoneHandler = fn }
}

// OnSnapshotDone sets the handler for SnapshotDone events
func OnSnapshotDone(fn func(SnapshotDone)) func(*Subscriber) {
	return func(s *Subscriber) { s.snapshotDoneHandler = fn }
}

// OnSnapshotError sets the handler for SnapshotError events
func OnSnapshotError(fn func(SnapshotError)) func(*Subscriber) {
	return func(s *Subscriber) { s.snapshotErrorHandler = fn }
}

// NewSubscriber creates a Subscriber with the given options and starts the dispatch loop.
// Returns a closer function that waits for all events to be processed.
//
// Example:
//
//	closer := snapshot.NewSubscriber(events,
//	  snapshot.OnSnapshotDone(func(d snapshot.SnapshotDone) { ... }),
//	)
//	defer closer()
//
// The subscriber processes events until the events channel closes.
func NewSubscriber(events <-chan Event, opts ...func(*Subscriber)) func() {
	s := &Subscriber{
		done:                    make(chan struct{}),
		snapshotStartedHandler:  func(SnapshotStarted) {},   // nop by default
		chainStateHandler:       func(ChainStateChanged) {}, // nop by default
		validatorsListedHandler: func(ValidatorsListed) {},  // nop by default
		fetchRetriedHandler:     func(FetchRetried) {},      // nop by default
		validatorDroppedHandler: func(ValidatorDropped) {},  // nop by default
		delegatorDroppedHandler: func(DelegatorDropped) {},  // nop by default
		chainAbortedHandler:     func(ChainAborted) {},      // nop by default
		chainDoneHandler:        func(ChainDone) {},         // nop by default
		snapshotDoneHandler:     func(SnapshotDone) {},      // nop by default
		snapshotErrorHandler:    func(SnapshotError) {},     // nop by default
	}

	for _, opt := range opts {
		opt(s)
	}

	go func() {
		defer close(s.done)
		for ev := range events {
			switch e := ev.(type) {
			case SnapshotStarted:
				s.snapshotStartedHandler(e)
			case ChainStateChanged:
				s.chainStateHandler(e)
			case ValidatorsListed:
				s.validatorsListedHandler(e)
			case FetchRetried:
				s.fetchRetriedHandler(e)
			case ValidatorDropped:
				s.validatorDroppedHandler(e)
			case DelegatorDropped:
				s.delegatorDroppedHandler(e)
			case ChainAborted:
				s.chainAbortedHandler(e)
			case ChainDone:
				s.chainDoneHandler(e)
			case SnapshotDone:
				s.snapshotDoneHandler(e)
			case SnapshotError:
				s.snapshotErrorHandler(e)
			}
		}
	}()

	return func() {
		<-s.done
	}
}
