// Package single provides a lazy source of exactly one value or one failure.
//
// Single mirrors the operator set of package observable for the one-value
// case:
//
//	price, err := single.FromFunc(fetchPrice).
//		Map(applyDiscount).
//		OnErrorReturnItem(0).
//		Get(ctx)
//
// The one behavioral difference from an observable concerns the observer:
// a panic raised by onSuccess is not turned into a failure. The single has
// already delivered its only terminal signal, so the panic propagates to the
// goroutine that runs the source, which is the caller of Subscribe unless
// SubscribeOn moved the source elsewhere.
//
// A mapper may also return an error as its value. MapTo[int, error] delivers
// that error to onSuccess; only the mapper's second return value fails the
// single.
package single
