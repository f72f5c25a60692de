// Package event carries worker activity from the scheduler to whoever is
// watching it: the terminal dashboard, the headless log sink, tests.
//
// The scheduler publishes without knowing its subscribers. Publishing is
// synchronous, so handlers must return quickly and must never call back into
// the scheduler; a panicking handler is recovered and logged so one broken
// subscriber cannot stall a state transition.
//
// # Event Types
//
//   - [WorkerStateEvent] ("worker.state"): an account worker changed state or
//     its next-run label changed
//   - [WorkerLogEvent] ("worker.log"): a line was appended to a worker's log
//
// # Usage
//
//	bus := event.NewBus()
//	unsubscribe := bus.Subscribe(func(e event.Event) {
//	    st := e.(event.WorkerStateEvent)
//	    fmt.Println(st.WorkerID, st.State, st.NextRun)
//	}, event.TypeWorkerState)
//	defer unsubscribe()
package event
