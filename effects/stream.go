package effects

import (
	"context"
)

// Stream subscribes to an external sequence and feeds every element back
// through toAction until the sequence closes or the effect is cancelled.
// A failure to open the sequence is handled like a failed Run.
func Stream[T any, A any](
	open func(ctx context.Context) (<-chan T, error),
	toAction func(T) A,
	opts ...RunOption[A],
) Effect[A] {
	return Run(func(ctx context.Context, send Sender[A]) error {
		source, err := open(ctx)
		if err != nil {
			return err
		}
		for {
			select {
			case <-ctx.Done():
				return nil
			case v, ok := <-source:
				if !ok {
					return nil
				}
				send(toAction(v))
			}
		}
	}, append([]RunOption[A]{Named[A]("stream")}, opts...)...)
}
