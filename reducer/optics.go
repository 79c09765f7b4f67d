package reducer

// Lens focuses on a part of a product type.
type Lens[P any, C any] struct {
	Get func(P) C
	Set func(*P, C)
}

// Field builds a lens from a field accessor, e.g. Field(func(s *State) *Child { return &s.Child }).
func Field[P any, C any](field func(*P) *C) Lens[P, C] {
	return Lens[P, C]{
		Get: func(p P) C { return *field(&p) },
		Set: func(p *P, c C) { *field(p) = c },
	}
}

// Identity focuses on the whole value.
func Identity[P any]() Lens[P, P] {
	return Lens[P, P]{
		Get: func(p P) P { return p },
		Set: func(p *P, c P) { *p = c },
	}
}

// Prism focuses on one case of a sum type.
type Prism[P any, C any] struct {
	Extract func(P) (C, bool)
	Embed   func(C) P
}

// Case builds a prism for a variant type C of the sealed interface P.
func Case[P any, C any](embed func(C) P) Prism[P, C] {
	return Prism[P, C]{
		Extract: func(p P) (C, bool) {
			c, ok := any(p).(C)
			return c, ok
		},
		Embed: embed,
	}
}

// Whole is the prism that matches every action, for scoping state only.
func Whole[A any]() Prism[A, A] {
	return Prism[A, A]{
		Extract: func(a A) (A, bool) { return a, true },
		Embed:   func(a A) A { return a },
	}
}
