package stack

// Action is what a navigation stack feature receives: an action for one
// entry, or a push/pop originating from the view layer.
type Action[E any, A any] interface {
	stackAction()
}

// Element routes Action to the entry with ID.
type Element[E any, A any] struct {
	ID     ElementID
	Action A
}

// Push appends State under ID, which the sender obtained from the stack's generator.
type Push[E any, A any] struct {
	ID    ElementID
	State E
}

// PopFrom removes ID and every entry above it.
type PopFrom[E any, A any] struct {
	ID ElementID
}

func (Element[E, A]) stackAction() {}
func (Push[E, A]) stackAction()    {}
func (PopFrom[E, A]) stackAction() {}

// Diff derives the single action turning current into proposed, assuming
// proposed differs from current by growth or shrink at the top only.
//
//   - Growth yields a Push of proposed's last entry.
//   - Shrink yields a PopFrom of the first entry current has beyond proposed.
//   - Equal lengths yield nothing.
func Diff[E any, A any](current, proposed State[E]) (Action[E, A], bool) {
	switch {
	case proposed.Len() > current.Len():
		id, e, _ := proposed.Last()
		return Push[E, A]{ID: id, State: e}, true
	case proposed.Len() < current.Len():
		id, _ := current.At(proposed.Len())
		return PopFrom[E, A]{ID: id}, true
	default:
		return nil, false
	}
}
