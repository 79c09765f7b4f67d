package reducer

import (
	"context"
	"fmt"

	"github.com/on-the-ground/composable_go/effects"
)

// IfLet embeds child into parent for an optional child state.
//
//   - A child action runs child first, then parent. With no child present it
//     is a misuse and only parent runs.
//   - Effects of the child are cancellable under its presentation identity:
//     the IfLet instance, the child's dynamic type and its PresentationID.
//   - When the child is dismissed (set to nil) or replaced by a child with
//     another identity, the effects of the old child are cancelled in the
//     same step. Effects of children nested under it go with them.
func IfLet[PS any, PA any, CS any, CA any](
	parent Reducer[PS, PA],
	state Lens[PS, *CS],
	action Prism[PA, CA],
	child Reducer[CS, CA],
) Reducer[PS, PA] {
	instance := nextInstance()

	return Func[PS, PA](func(ctx context.Context, ps *PS, pa PA) effects.Effect[PA] {
		before := state.Get(*ps)
		var beforeID PresentationID
		if present(before) {
			beforeID = presentationIDOf(ctx, instance, *before)
		}

		childEff := effects.None[PA]()
		if ca, ok := action.Extract(pa); ok {
			if !present(before) {
				reportMisuse(ctx, MisuseAbsentChild, "child action received while no child is presented", map[string]interface{}{
					"action": fmt.Sprintf("%T", ca),
				})
			} else {
				cs := *before
				eff := child.Reduce(withScopeSegment(ctx, instance, beforeID.segment()), &cs, ca)
				state.Set(ps, &cs)
				childEff = effects.Map(eff, action.Embed).
					Cancellable(presentationIDOf(ctx, instance, cs), false)
			}
		}

		parentEff := parent.Reduce(ctx, ps, pa)

		dismissEff := effects.None[PA]()
		if present(before) {
			after := state.Get(*ps)
			if !present(after) || presentationIDOf(ctx, instance, *after) != beforeID {
				dismissEff = effects.Cancel[PA](beforeID)
			}
		}
		return effects.Merge(childEff, parentEff, dismissEff)
	})
}
