// Package dependencies threads a store's collaborators through context.Context.
//
// Reducers and effects never reach for globals. Clocks, id generators,
// persistence containers and loggers are registered as handlers on the
// context handed to store.New, and looked up again by whatever runs under
// that context:
//
//	ctx, endOfClock := clock.WithEffectHandler(ctx, clock.NewTestClock(epoch))
//	defer endOfClock()
//
//	s := store.New(ctx, Feature{}, reducer)
//
// A handler is served by its own worker goroutine(s). Resumable handlers answer
// a request with a value; fire-and-forget handlers only consume payloads.
// Registration returns a teardown that closes the handler and hands back the
// context it was registered on.
package dependencies
