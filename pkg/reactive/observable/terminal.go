package observable

import (
	"context"

	"github.com/vnykmshr/rxflow/pkg/reactive/lifecycle"
)

// await blocks until sub terminates or ctx is done, disposing sub in the
// latter case.
func await(ctx context.Context, sub lifecycle.Subscription) error {
	select {
	case <-sub.Done():
		return sub.Err()
	case <-ctx.Done():
		sub.Dispose()
		return ctx.Err()
	}
}

// ToSlice implementation
func (o *observable[T]) ToSlice(ctx context.Context) ([]T, error) {
	result := make([]T, 0)
	sub := o.Subscribe(ctx,
		func(v T) { result = append(result, v) },
		func(error) {},
		lifecycle.WithName("to_slice"),
	)
	if err := await(ctx, sub); err != nil {
		return nil, err
	}
	return result, nil
}

// ForEach implementation
func (o *observable[T]) ForEach(ctx context.Context, action func(T)) error {
	sub := o.Subscribe(ctx, action, func(error) {}, lifecycle.WithName("for_each"))
	return await(ctx, sub)
}

// Count implementation
func (o *observable[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	sub := o.Subscribe(ctx,
		func(T) { count++ },
		func(error) {},
		lifecycle.WithName("count"),
	)
	if err := await(ctx, sub); err != nil {
		return 0, err
	}
	return count, nil
}
