package reducer

import (
	"context"
	"fmt"

	"github.com/on-the-ground/composable_go/collections/stack"
	"github.com/on-the-ground/composable_go/effects"
)

// ForEachStack embeds child into parent for every entry of a navigation stack.
//
//   - stack.Element runs child on that entry first, then parent.
//   - stack.Push appends the entry before parent runs.
//   - stack.PopFrom runs parent while the popped entries are still present,
//     then pops them.
//   - Effects of an entry are cancelled once it leaves the stack, however it left.
//
// Unknown ids and reused push ids are misuses and leave the stack untouched.
func ForEachStack[PS any, PA any, E any, EA any](
	parent Reducer[PS, PA],
	state Lens[PS, stack.State[E]],
	action Prism[PA, stack.Action[E, EA]],
	child Reducer[E, EA],
) Reducer[PS, PA] {
	instance := nextInstance()

	return Func[PS, PA](func(ctx context.Context, ps *PS, pa PA) effects.Effect[PA] {
		before := state.Get(*ps)

		childEff := effects.None[PA]()
		var popFrom *stack.ElementID
		if sa, ok := action.Extract(pa); ok {
			switch sa := sa.(type) {
			case stack.Element[E, EA]:
				elem, ok := before.Get(sa.ID)
				if !ok {
					reportMisuse(ctx, MisuseMissingElement, "stack element action received for an id not on the stack", map[string]interface{}{
						"id":     int(sa.ID),
						"action": fmt.Sprintf("%T", sa.Action),
					})
					break
				}
				eff := child.Reduce(withScopeSegment(ctx, instance, sa.ID), &elem, sa.Action)
				entries := before
				entries.Update(sa.ID, func(e *E) { *e = elem })
				state.Set(ps, entries)
				childEff = effects.Map(eff, func(a EA) PA {
					return action.Embed(stack.Element[E, EA]{ID: sa.ID, Action: a})
				}).Cancellable(elementIDOf(ctx, instance, sa.ID), false)

			case stack.Push[E, EA]:
				if before.Contains(sa.ID) {
					reportMisuse(ctx, MisuseDuplicatePushID, "push received with an id already on the stack", map[string]interface{}{
						"id": int(sa.ID),
					})
					break
				}
				entries := before
				entries.Append(sa.ID, sa.State)
				state.Set(ps, entries)

			case stack.PopFrom[E, EA]:
				if !before.Contains(sa.ID) {
					reportMisuse(ctx, MisuseMissingElement, "pop received for an id not on the stack", map[string]interface{}{
						"id": int(sa.ID),
					})
					break
				}
				id := sa.ID
				popFrom = &id
			}
		}

		parentEff := parent.Reduce(ctx, ps, pa)

		after := state.Get(*ps)
		if popFrom != nil {
			after.PopFrom(*popFrom)
			state.Set(ps, after)
		}
		var removed []any
		for _, id := range before.IDs() {
			if !after.Contains(id) {
				removed = append(removed, elementIDOf(ctx, instance, id))
			}
		}
		return effects.Merge(childEff, parentEff, effects.Cancel[PA](removed...))
	})
}
