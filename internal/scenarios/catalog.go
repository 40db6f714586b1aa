package scenarios

import (
	"context"
	"errors"
	"fmt"
	"sort"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
	"github.com/vnykmshr/rxflow/pkg/reactive/single"
)

// ErrUnknownScenario is returned by Lookup for a name not in the catalog.
var ErrUnknownScenario = errors.New("unknown scenario")

// replacement is the constant the transform step returns for non-trigger
// elements. Every range scenario emits it, whatever the trigger, rather than
// negating the element.
const replacement = -1

// transform fails on the trigger value and otherwise returns replacement.
func transform(trigger int, message string) func(int) (int, error) {
	return func(v int) (int, error) {
		if v == trigger {
			return 0, rxerrors.NewTransformError(message)
		}
		return replacement, nil
	}
}

// Catalog returns the built-in scenarios in display order.
func Catalog() []Scenario {
	return []Scenario{
		{
			Name:        "single-success-panic",
			Kind:        KindSingle,
			Description: "onSuccess panics; the panic escapes instead of reaching onError",
			Expect:      OutcomePanicked,
			run: func(ctx context.Context, env Env, _ *recovery) Result {
				return observeSingle(ctx, env, "single-success-panic", single.Just(0), func(int) {
					panic(env.message())
				})
			},
		},
		{
			Name:        "observable-next-panic",
			Kind:        KindObservable,
			Description: "onNext panics; the panic is delivered to onError",
			Expect:      OutcomeFailed,
			run: func(ctx context.Context, env Env, _ *recovery) Result {
				return observe(ctx, env, "observable-next-panic", observable.Just(0), func(int) {
					panic(env.message())
				})
			},
		},
		{
			Name:        "single-map-error-value",
			Kind:        KindSingle,
			Description: "map returns an error as its value; it reaches onSuccess",
			Expect:      OutcomeCompleted,
			run: func(ctx context.Context, env Env, _ *recovery) Result {
				src := single.MapTo(single.Just(0), func(int) (error, error) {
					return errors.New(env.message()), nil
				})
				return observeSingle(ctx, env, "single-map-error-value", src, nil)
			},
		},
		{
			Name:        "single-map-fails",
			Kind:        KindSingle,
			Description: "map fails; onError receives the failure",
			Expect:      OutcomeFailed,
			run: func(ctx context.Context, env Env, _ *recovery) Result {
				src := single.Just(0).Map(transform(0, env.message()))
				return observeSingle(ctx, env, "single-map-fails", src, nil)
			},
		},
		{
			Name:        "single-map-fails-resume",
			Kind:        KindSingle,
			Description: "map fails; onErrorResumeNext re-raises it to onError",
			Expect:      OutcomeFailed,
			run: func(ctx context.Context, env Env, rec *recovery) Result {
				src := single.Just(0).
					Map(transform(0, env.message())).
					OnErrorResumeNext(func(err error) single.Single[int] {
						rec.hit()
						return single.Error[int](err)
					})
				return observeSingle(ctx, env, "single-map-fails-resume", src, nil)
			},
		},
		{
			Name:        "single-map-fails-return",
			Kind:        KindSingle,
			Description: "map fails; onErrorReturn substitutes 2",
			Expect:      OutcomeCompleted,
			run: func(ctx context.Context, env Env, rec *recovery) Result {
				src := single.Just(0).
					Map(transform(0, env.message())).
					OnErrorReturn(func(error) int {
						rec.hit()
						return 2
					})
				return observeSingle(ctx, env, "single-map-fails-return", src, nil)
			},
		},
		{
			Name:        "single-map-fails-return-item",
			Kind:        KindSingle,
			Description: "map fails; onErrorReturnItem substitutes 2",
			Expect:      OutcomeCompleted,
			run: func(ctx context.Context, env Env, _ *recovery) Result {
				src := single.Just(0).
					Map(transform(0, env.message())).
					OnErrorReturnItem(2)
				return observeSingle(ctx, env, "single-map-fails-return-item", src, nil)
			},
		},
		{
			Name:        "range-map-fails",
			Kind:        KindObservable,
			Description: "range(start, count) mapped with a failing transform; elements before the trigger become -1, upstream stops at the trigger",
			Expect:      OutcomeFailed,
			run: func(ctx context.Context, env Env, _ *recovery) Result {
				p := env.Params
				src := observable.Range(p.Start, p.Count).Map(transform(p.Trigger, env.message()))
				return observe(ctx, env, "range-map-fails", src, nil)
			},
		},
		{
			Name:        "range-map-fails-resume",
			Kind:        KindObservable,
			Description: "range(start, count), failing transform (others become -1), onErrorResumeNext re-raising the failure",
			Expect:      OutcomeFailed,
			run: func(ctx context.Context, env Env, rec *recovery) Result {
				return rangeResume(ctx, env, rec, "range-map-fails-resume", env.Params)
			},
		},
		{
			Name:        "range-trigger-missed",
			Kind:        KindObservable,
			Description: "the resume chain starting one past the trigger; every element is replaced by -1",
			Expect:      OutcomeCompleted,
			run: func(ctx context.Context, env Env, rec *recovery) Result {
				p := env.Params
				p.Start = p.Trigger + 1
				return rangeResume(ctx, env, rec, "range-trigger-missed", p)
			},
		},
	}
}

// rangeResume is the demonstrated chain: range → failing map → re-raising
// onErrorResumeNext → observer.
func rangeResume(ctx context.Context, env Env, rec *recovery, name string, p Params) Result {
	src := observable.Range(p.Start, p.Count).
		Map(transform(p.Trigger, env.message())).
		OnErrorResumeNext(func(err error) observable.Observable[int] {
			rec.hit()
			return observable.Error[int](err)
		})
	return observe(ctx, env, name, src, nil)
}

// Merge appends extra to catalog. A name already present in catalog is
// rejected so that Lookup and RunAll never see two scenarios with one name.
func Merge(catalog []Scenario, extra []Scenario) ([]Scenario, error) {
	names := make(map[string]bool, len(catalog)+len(extra))
	for _, s := range catalog {
		names[s.Name] = true
	}

	merged := make([]Scenario, 0, len(catalog)+len(extra))
	merged = append(merged, catalog...)
	for _, s := range extra {
		if names[s.Name] {
			return nil, rxerrors.NewValidationError("scenario", "name", s.Name, "duplicate name").
				WithHint("rename the scenario; built-in names are reserved")
		}
		names[s.Name] = true
		merged = append(merged, s)
	}
	return merged, nil
}

// Lookup returns the named scenarios from catalog, in the order given.
// An empty names list returns the whole catalog.
func Lookup(catalog []Scenario, names ...string) ([]Scenario, error) {
	if len(names) == 0 {
		return catalog, nil
	}

	byName := make(map[string]Scenario, len(catalog))
	for _, s := range catalog {
		byName[s.Name] = s
	}

	selected := make([]Scenario, 0, len(names))
	var unknown []string
	for _, name := range names {
		s, ok := byName[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		selected = append(selected, s)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %v", ErrUnknownScenario, unknown)
	}
	return selected, nil
}

// RunAll runs scenarios in order and returns one Result per scenario. It
// stops early when ctx is done.
func RunAll(ctx context.Context, scenarios []Scenario, env Env) []Result {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		if ctx.Err() != nil {
			break
		}
		res := s.Run(ctx, env)
		if env.Logger != nil {
			env.Logger.Debug("scenario finished",
				"scenario", res.Name,
				"outcome", string(res.Outcome),
				"elements", len(res.Values),
				"recoveries", res.Recoveries,
				"duration", res.Duration)
		}
		results = append(results, res)
	}
	return results
}
