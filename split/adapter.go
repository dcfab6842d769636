package split

import "context"

// Adapter gives every branch of a split a private context. Create derives a
// child context from the parent before a branch starts; Aggregate folds the
// children back into the parent once every branch has finished. It is the only
// place the parent is mutated.
type Adapter[C any] interface {
	Create(ctx context.Context, parent C) (C, error)
	Aggregate(ctx context.Context, parent C, children []C) error
}

// AdapterFuncs builds an Adapter from two functions. A nil CreateFunc shares
// the parent and a nil AggregateFunc does nothing.
type AdapterFuncs[C any] struct {
	CreateFunc    func(ctx context.Context, parent C) (C, error)
	AggregateFunc func(ctx context.Context, parent C, children []C) error
}

func (a AdapterFuncs[C]) Create(ctx context.Context, parent C) (C, error) {
	if a.CreateFunc == nil {
		return parent, nil
	}

	return a.CreateFunc(ctx, parent)
}

func (a AdapterFuncs[C]) Aggregate(ctx context.Context, parent C, children []C) error {
	if a.AggregateFunc == nil {
		return nil
	}

	return a.AggregateFunc(ctx, parent, children)
}
