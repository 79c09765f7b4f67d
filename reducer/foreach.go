package reducer

import (
	"context"
	"fmt"

	"github.com/on-the-ground/composable_go/collections/identified"
	"github.com/on-the-ground/composable_go/effects"
)

// ElementAction addresses Action to the element with ID.
type ElementAction[ID comparable, A any] struct {
	ID     ID
	Action A
}

// ForEach embeds child into parent for every element of an identified array.
//
//   - An element action runs child on that element first, then parent. An
//     id missing from the array is a misuse and only parent runs.
//   - Effects of an element are cancellable under its ElementID and are
//     cancelled once the element is removed from the array.
func ForEach[PS any, PA any, ID comparable, E identified.Identifiable[ID], EA any](
	parent Reducer[PS, PA],
	state Lens[PS, identified.Array[ID, E]],
	action Prism[PA, ElementAction[ID, EA]],
	child Reducer[E, EA],
) Reducer[PS, PA] {
	instance := nextInstance()

	return Func[PS, PA](func(ctx context.Context, ps *PS, pa PA) effects.Effect[PA] {
		before := state.Get(*ps)

		childEff := effects.None[PA]()
		if ea, ok := action.Extract(pa); ok {
			if elem, ok := before.Get(ea.ID); !ok {
				reportMisuse(ctx, MisuseMissingElement, "element action received for an id not in the collection", map[string]interface{}{
					"id":     fmt.Sprint(ea.ID),
					"action": fmt.Sprintf("%T", ea.Action),
				})
			} else {
				eff := child.Reduce(withScopeSegment(ctx, instance, ea.ID), &elem, ea.Action)
				elems := before
				elems.Update(ea.ID, func(e *E) { *e = elem })
				state.Set(ps, elems)
				childEff = effects.Map(eff, func(a EA) PA {
					return action.Embed(ElementAction[ID, EA]{ID: ea.ID, Action: a})
				}).Cancellable(elementIDOf(ctx, instance, ea.ID), false)
			}
		}

		parentEff := parent.Reduce(ctx, ps, pa)

		after := state.Get(*ps)
		var removed []any
		for _, id := range before.IDs() {
			if !after.Contains(id) {
				removed = append(removed, elementIDOf(ctx, instance, id))
			}
		}
		return effects.Merge(childEff, parentEff, effects.Cancel[PA](removed...))
	})
}
