// Package effects describes and runs the side effects of reducers.
//
// A reducer never performs work itself. It returns an Effect: a lazy,
// composable description of work that may feed further actions back into the
// store. The store hands effects to a Runtime, which runs them on supervised
// goroutines under a context carrying the store's dependencies.
//
// # Building effects
//
//   - None, Send: no work, or immediate follow-up actions.
//   - Run, FireAndForget, Task, Stream: asynchronous work.
//   - Merge, Concatenate: concurrent or sequential composition.
//   - Cancellable, Cancel: cancellation by id.
//   - Map: lift a child's effect into its parent's action type.
//
// # Cancellation
//
// Every effect runs under its own context. Cancelling an id cancels the
// contexts registered under it, and an action sent from a cancelled context
// is dropped by the store before it reaches a reducer. Cancellable ids nest:
// cancelling an outer id also cancels effects registered under inner ids
// within it.
//
// Example:
//
//	type timerID struct{}
//
//	func reduce(ctx context.Context, state *State, action Action) effects.Effect[Action] {
//	    switch action.(type) {
//	    case StartTapped:
//	        return effects.Run(func(ctx context.Context, send effects.Sender[Action]) error {
//	            ticks := clock.From(ctx).Ticker(ctx, time.Second)
//	            for {
//	                select {
//	                case <-ctx.Done():
//	                    return nil
//	                case <-ticks:
//	                    send(Tick{})
//	                }
//	            }
//	        }).Cancellable(timerID{}, true)
//	    case StopTapped:
//	        return effects.Cancel[Action](timerID{})
//	    }
//	    return effects.None[Action]()
//	}
package effects
