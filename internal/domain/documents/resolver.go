package documents

import (
	"rfidstock/internal/core/apperror"
)

// Resolver maps URL slugs and doctype names to kinds.
// Kinds keep their registration order.
type Resolver struct {
	kinds []Kind
	index map[string]int
}

// NewResolver creates a resolver over the given kinds.
func NewResolver(kinds ...Kind) *Resolver {
	r := &Resolver{index: make(map[string]int, len(kinds)*2)}
	for _, k := range kinds {
		r.index[k.Slug] = len(r.kinds)
		r.index[k.Doctype] = len(r.kinds)
		r.kinds = append(r.kinds, k)
	}
	return r
}

// Kind resolves a slug or a doctype name.
func (r *Resolver) Kind(name string) (Kind, error) {
	i, ok := r.index[name]
	if !ok {
		return Kind{}, apperror.NewNotFound("document kind", name)
	}
	return r.kinds[i], nil
}

// Kinds returns every registered kind.
func (r *Resolver) Kinds() []Kind {
	out := make([]Kind, len(r.kinds))
	copy(out, r.kinds)
	return out
}
