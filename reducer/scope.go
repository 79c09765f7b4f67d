package reducer

import (
	"context"
	"fmt"

	"github.com/on-the-ground/composable_go/effects"
)

// Scope runs child on the part of the parent state selected by state, for the
// parent actions selected by action. Other actions are ignored.
func Scope[PS any, PA any, CS any, CA any](
	state Lens[PS, CS],
	action Prism[PA, CA],
	child Reducer[CS, CA],
) Reducer[PS, PA] {
	return Func[PS, PA](func(ctx context.Context, ps *PS, pa PA) effects.Effect[PA] {
		ca, ok := action.Extract(pa)
		if !ok {
			return effects.None[PA]()
		}
		cs := state.Get(*ps)
		eff := child.Reduce(ctx, &cs, ca)
		state.Set(ps, cs)
		return effects.Map(eff, action.Embed)
	})
}

// ScopeCase runs child when the parent state currently holds the case
// selected by state. A matching action against another case is a misuse.
func ScopeCase[PS any, PA any, CS any, CA any](
	state Prism[PS, CS],
	action Prism[PA, CA],
	child Reducer[CS, CA],
) Reducer[PS, PA] {
	return Func[PS, PA](func(ctx context.Context, ps *PS, pa PA) effects.Effect[PA] {
		ca, ok := action.Extract(pa)
		if !ok {
			return effects.None[PA]()
		}
		cs, ok := state.Extract(*ps)
		if !ok {
			reportMisuse(ctx, MisuseUnmatchedCase, "case action received while state holds another case", map[string]interface{}{
				"action": fmt.Sprintf("%T", ca),
				"state":  fmt.Sprintf("%T", *ps),
			})
			return effects.None[PA]()
		}
		eff := child.Reduce(ctx, &cs, ca)
		*ps = state.Embed(cs)
		return effects.Map(eff, action.Embed)
	})
}
