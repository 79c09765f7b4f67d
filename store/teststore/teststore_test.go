package teststore_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/on-the-ground/composable_go/effects"
	"github.com/on-the-ground/composable_go/reducer"
	"github.com/on-the-ground/composable_go/store/teststore"
	"github.com/stretchr/testify/assert"
)

// failures records errors instead of failing the enclosing test.
type failures struct {
	testing.TB
	errors []string
}

func (f *failures) Helper() {}

func (f *failures) Errorf(format string, args ...interface{}) {
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
}

type (
	bump  struct{}
	echo  struct{}
	state struct{ N int }
)

func counter() reducer.Reducer[state, any] {
	return reducer.Func[state, any](func(_ context.Context, s *state, a any) effects.Effect[any] {
		switch a.(type) {
		case bump:
			s.N++
		case echo:
			return effects.Run(func(_ context.Context, send effects.Sender[any]) error {
				send(bump{})
				return nil
			})
		}
		return effects.None[any]()
	})
}

func TestSendAndReceive_Trace(t *testing.T) {
	ts := teststore.New(t, context.Background(), state{}, counter(),
		teststore.WithActionFormat(func(a any) string { return fmt.Sprintf("%T", a) }))

	ts.Send(bump{}, func(s *state) { s.N = 1 })
	ts.Send(echo{}, nil)
	ts.Receive(bump{}, func(s *state) { s.N = 2 })
	ts.Finish()

	assert.Equal(t, []string{
		"send teststore_test.bump",
		"send teststore_test.echo",
		"receive teststore_test.bump",
	}, ts.Trace())
	assert.Equal(t, state{N: 2}, ts.State())
}

func TestSend_WrongStateFails(t *testing.T) {
	f := &failures{TB: t}
	ts := teststore.New(f, context.Background(), state{}, counter())

	ts.Send(bump{}, func(s *state) { s.N = 5 })
	assert.Len(t, f.errors, 1)
	assert.Equal(t, state{N: 1}, ts.State())
}

func TestFinish_UnassertedActionFails(t *testing.T) {
	f := &failures{TB: t}
	ts := teststore.New(f, context.Background(), state{}, counter())

	ts.Send(echo{}, nil)
	ts.Finish()
	assert.Len(t, f.errors, 1)

	ts.SkipReceived()
	assert.Equal(t, state{N: 1}, ts.State())
	assert.Equal(t, "skip teststore_test.bump{}", ts.Trace()[1])
}
