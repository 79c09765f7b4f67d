package store_test

import (
	"context"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/on-the-ground/composable_go/collections/identified"
	"github.com/on-the-ground/composable_go/collections/stack"
	"github.com/on-the-ground/composable_go/dependencies/log"
	"github.com/on-the-ground/composable_go/effects"
	"github.com/on-the-ground/composable_go/metrics"
	"github.com/on-the-ground/composable_go/reducer"
	"github.com/on-the-ground/composable_go/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Key   string
	Count int
}

func (i item) ID() string { return i.Key }

type appState struct {
	Count int
	Log   []string
	Items identified.Array[string, item]
	Path  stack.State[item]
	Child *int
}

type action interface{ isAction() }

type (
	increment   struct{}
	chain       struct{ N int }
	record      struct{ Text string }
	startTicker struct{ Ticks <-chan struct{} }
	stopTicker  struct{}
	tick        struct{}
	itemAction  struct {
		ID     string
		Action itemIncrement
	}
	itemIncrement struct{}
	removeItem    struct{ ID string }
	present       struct{}
	dismiss       struct{}
	childAction   struct{}
	pushItem      struct {
		ID   stack.ElementID
		Item item
	}
	popItem        struct{ ID stack.ElementID }
	pathItemAction struct {
		ID     stack.ElementID
		Action itemIncrement
	}
)

func (increment) isAction()      {}
func (chain) isAction()          {}
func (record) isAction()         {}
func (startTicker) isAction()    {}
func (stopTicker) isAction()     {}
func (tick) isAction()           {}
func (itemAction) isAction()     {}
func (removeItem) isAction()     {}
func (present) isAction()        {}
func (dismiss) isAction()        {}
func (childAction) isAction()    {}
func (pushItem) isAction()       {}
func (popItem) isAction()        {}
func (pathItemAction) isAction() {}

type tickerID struct{}

func feature() reducer.Reducer[appState, action] {
	return reducer.Func[appState, action](func(ctx context.Context, s *appState, a action) effects.Effect[action] {
		switch a := a.(type) {
		case increment:
			s.Count++
		case chain:
			s.Log = append(s.Log, "chain")
			if a.N > 0 {
				return effects.Send[action](chain{N: a.N - 1}, record{Text: "after"})
			}
		case record:
			s.Log = append(s.Log, a.Text)
		case startTicker:
			return effects.Run(func(ctx context.Context, send effects.Sender[action]) error {
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-a.Ticks:
						send(tick{})
					}
				}
			}).Cancellable(tickerID{}, true)
		case stopTicker:
			return effects.Cancel[action](tickerID{})
		case tick:
			s.Count++
		case itemAction:
			s.Items.Update(a.ID, func(i *item) { i.Count++ })
		case removeItem:
			s.Items.Remove(a.ID)
		case present:
			zero := 0
			s.Child = &zero
		case dismiss:
			s.Child = nil
		case pushItem:
			s.Path.Append(a.ID, a.Item)
		case popItem:
			s.Path.PopFrom(a.ID)
		case pathItemAction:
			s.Path.Update(a.ID, func(i *item) { i.Count++ })
		}
		return effects.None[action]()
	})
}

func newStore(t *testing.T, initial appState, opts ...store.Option) *store.Store[appState, action] {
	ctx, endOfLog := log.WithTestEffectHandler(context.Background())
	s := store.New(ctx, initial, feature(), opts...)
	t.Cleanup(func() {
		s.Close()
		endOfLog()
	})
	return s
}

func TestSend_ReducesSynchronously(t *testing.T) {
	s := newStore(t, appState{})
	s.Send(increment{})
	s.Send(increment{})
	assert.Equal(t, 2, s.State().Count)
}

func TestSend_ProcessesImmediateActionsInOrder(t *testing.T) {
	s := newStore(t, appState{})
	s.Send(chain{N: 2})
	assert.Equal(t, []string{"chain", "chain", "after", "chain", "after"}, s.State().Log)
}

func TestSend_ReentrantSendIsBuffered(t *testing.T) {
	var s *store.Store[appState, action]
	r := reducer.Func[appState, action](func(ctx context.Context, st *appState, a action) effects.Effect[action] {
		switch a.(type) {
		case chain:
			st.Log = append(st.Log, "outer")
			s.Send(record{Text: "inner"})
			st.Log = append(st.Log, "outer done")
		case record:
			st.Log = append(st.Log, "inner")
		}
		return effects.None[action]()
	})
	s = store.New(context.Background(), appState{}, r)
	defer s.Close()

	done := make(chan struct{})
	go func() {
		s.Send(chain{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("re-entrant send deadlocked")
	}
	assert.Equal(t, []string{"outer", "outer done", "inner"}, s.State().Log)
}

func TestCancelInFlight_OldEffectNeverDelivers(t *testing.T) {
	s := newStore(t, appState{})
	first := make(chan struct{}, 1)
	second := make(chan struct{}, 1)

	s.Send(startTicker{Ticks: first})
	first <- struct{}{}
	require.Eventually(t, func() bool { return s.State().Count == 1 }, time.Second, time.Millisecond)

	s.Send(startTicker{Ticks: second})
	first <- struct{}{}
	second <- struct{}{}
	require.Eventually(t, func() bool { return s.State().Count == 2 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, s.State().Count)

	s.Send(stopTicker{})
	require.Eventually(t, func() bool { return s.ActiveEffects() == 0 }, time.Second, time.Millisecond)
}

func TestTask_CancelStopsEffect(t *testing.T) {
	s := newStore(t, appState{})
	ticks := make(chan struct{})
	task := s.Send(startTicker{Ticks: ticks})
	assert.False(t, task.IsCancelled())

	task.Cancel()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.ErrorIs(t, task.Wait(ctx), context.Canceled)
	assert.True(t, task.IsCancelled())
}

func TestTask_CancelledByIDIsObservedByWaiter(t *testing.T) {
	s := newStore(t, appState{})
	task := s.Send(startTicker{Ticks: make(chan struct{})})
	s.Send(stopTicker{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.ErrorIs(t, task.Wait(ctx), context.Canceled)
	assert.True(t, task.IsCancelled())
}

func TestTask_CompletesWithEffects(t *testing.T) {
	s := newStore(t, appState{})
	task := s.Send(increment{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, task.Wait(ctx))
}

func TestScope_ReadsAndWritesThroughRoot(t *testing.T) {
	s := newStore(t, appState{})
	count := store.Scope(s, func(st appState) int { return st.Count }, func(a increment) action { return a })

	count.Send(increment{})
	assert.Equal(t, 1, count.State())
	assert.Equal(t, 1, s.State().Count)
	assert.True(t, count.IsValid())
}

func TestScopeElement_CachedAndInvalidatedOnRemoval(t *testing.T) {
	s := newStore(t, appState{Items: identified.New[string](item{Key: "a"}, item{Key: "b"})})
	embed := func(id string, a itemIncrement) action { return itemAction{ID: id, Action: a} }
	items := func(st appState) identified.Array[string, item] { return st.Items }

	a1 := store.ScopeElement(s, "items", items, "a", embed)
	a2 := store.ScopeElement(s, "items", items, "a", embed)
	assert.Same(t, a1, a2)

	a1.Send(itemIncrement{})
	assert.Equal(t, 1, a1.State().Count)

	s.Send(removeItem{ID: "a"})
	assert.False(t, a1.IsValid())
	assert.Equal(t, item{Key: "a", Count: 1}, a1.State())

	a1.Send(itemIncrement{})
	assert.Equal(t, 1, a1.State().Count)

	b := store.ScopeElement(s, "items", items, "b", embed)
	assert.True(t, b.IsValid())
	a3 := store.ScopeElement(s, "items", items, "a", embed)
	assert.NotSame(t, a1, a3)
	assert.False(t, a3.IsValid())
}

func TestScopeStackElement_CachedAndInvalidatedOnPop(t *testing.T) {
	s := newStore(t, appState{})
	s.Send(pushItem{ID: 0, Item: item{Key: "first"}})
	s.Send(pushItem{ID: 1, Item: item{Key: "second"}})

	path := func(st appState) stack.State[item] { return st.Path }
	embed := func(id stack.ElementID, a itemIncrement) action { return pathItemAction{ID: id, Action: a} }

	second := store.ScopeStackElement(s, "path", path, 1, embed)
	assert.Same(t, second, store.ScopeStackElement(s, "path", path, 1, embed))
	first := store.ScopeStackElement(s, "path", path, 0, embed)
	assert.NotSame(t, first, second)

	second.Send(itemIncrement{})
	assert.Equal(t, item{Key: "second", Count: 1}, second.State())
	assert.Equal(t, item{Key: "first"}, first.State())

	s.Send(popItem{ID: 1})
	assert.False(t, second.IsValid())
	assert.True(t, first.IsValid())

	second.Send(itemIncrement{})
	assert.Equal(t, item{Key: "second", Count: 1}, second.State())
	assert.Equal(t, 1, s.State().Path.Len())

	s.Send(pushItem{ID: 1, Item: item{Key: "again"}})
	again := store.ScopeStackElement(s, "path", path, 1, embed)
	assert.NotSame(t, second, again)
	assert.Equal(t, item{Key: "again"}, again.State())
	assert.False(t, second.IsValid())
}

func TestScopeOptional_StaleSendIsCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := newStore(t, appState{}, store.WithName("app"), store.WithMetrics(metrics.NewCollector(reg)))
	s.Send(present{})

	child := store.ScopeOptional(s, "child",
		func(st appState) (int, bool) {
			if st.Child == nil {
				return 0, false
			}
			return *st.Child, true
		},
		func(a childAction) action { return a },
	)
	require.True(t, child.IsValid())

	s.Send(dismiss{})
	assert.False(t, child.IsValid())
	child.Send(childAction{})

	expected := `
# HELP composable_store_stale_sends_total Sends to scoped stores that were no longer valid
# TYPE composable_store_stale_sends_total counter
composable_store_stale_sends_total{store="app"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, stringsReader(expected), "composable_store_stale_sends_total"))
}

func TestObserve_NotifiesOnlyOnChange(t *testing.T) {
	s := newStore(t, appState{})

	var mu sync.Mutex
	var counts []int
	var logs atomic.Int64
	cancelCount := store.Observe(s, func(st appState) int { return st.Count }, nil, func(n int) {
		mu.Lock()
		defer mu.Unlock()
		counts = append(counts, n)
	})
	defer store.Observe(s, func(st appState) []string { return st.Log }, nil, func([]string) {
		logs.Add(1)
	})()

	s.Send(increment{})
	s.Send(record{Text: "x"})
	s.Send(increment{})
	cancelCount()
	s.Send(increment{})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, counts)
	assert.Equal(t, int64(1), logs.Load())
}

type version struct {
	N       int
	Ignored int
}

func (v version) Equals(o version) bool { return v.N == o.N }

func TestDefaultEqual_PrefersEquatable(t *testing.T) {
	assert.True(t, store.DefaultEqual(version{N: 1, Ignored: 1}, version{N: 1, Ignored: 2}))
	assert.False(t, store.DefaultEqual(version{N: 1}, version{N: 2}))
	assert.True(t, store.DefaultEqual([]int{1}, []int{1}))
}

func TestClose_InvalidatesScopesAndIgnoresSends(t *testing.T) {
	ctx := context.Background()
	s := store.New(ctx, appState{}, feature())
	count := store.Scope(s, func(st appState) int { return st.Count }, func(a increment) action { return a })
	s.Send(increment{})
	require.Equal(t, 1, count.State())
	s.Close()

	assert.False(t, count.IsValid())
	assert.False(t, s.IsValid())
	s.Send(increment{})
	assert.Equal(t, 1, s.State().Count)
	assert.Equal(t, 1, count.State())
	assert.Panics(t, count.Close)
}

type boom struct{}

func (boom) isAction() {}

func panicking() reducer.Reducer[appState, action] {
	return reducer.Combine(
		reducer.Func[appState, action](func(_ context.Context, _ *appState, a action) effects.Effect[action] {
			switch a.(type) {
			case boom:
				panic("invariant violated")
			case chain:
				return effects.Run(func(_ context.Context, send effects.Sender[action]) error {
					send(boom{})
					return nil
				})
			}
			return effects.None[action]()
		}),
		feature(),
	)
}

func TestSend_ReducerPanicReleasesStore(t *testing.T) {
	s := store.New(context.Background(), appState{}, panicking())
	defer s.Close()

	assert.PanicsWithValue(t, "invariant violated", func() { s.Send(boom{}) })

	done := make(chan struct{})
	go func() {
		s.Send(increment{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("store stayed locked after a reducer panic")
	}
	assert.Equal(t, 1, s.State().Count)
}

func TestSend_ReducerPanicFromEffectCrashes(t *testing.T) {
	if os.Getenv("STORE_REDUCER_PANIC") == "1" {
		s := store.New(context.Background(), appState{}, panicking())
		s.Send(chain{})
		time.Sleep(5 * time.Second)
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestSend_ReducerPanicFromEffectCrashes$")
	cmd.Env = append(os.Environ(), "STORE_REDUCER_PANIC=1")
	out, err := cmd.CombinedOutput()

	var exit *exec.ExitError
	require.ErrorAs(t, err, &exit)
	assert.False(t, exit.Success())
	assert.Contains(t, string(out), "invariant violated")
}
