package scenarios

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/common/validation"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
)

// Recovery strategies accepted in scenario files.
const (
	RecoveryNone       = "none"
	RecoveryResumeNext = "resume_next"
	RecoveryReturnItem = "return_item"
)

// Definition describes a range → map → recovery chain loaded from YAML.
// A scenario file is a stream of documents, one definition each:
//
//	name: fails-at-ten
//	count: 20
//	trigger: 10
//	recovery: return_item
//	item: 99
//	---
//	name: plain
//	trigger: 3
type Definition struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Start       int     `yaml:"start"`
	Count       *int    `yaml:"count"`
	Trigger     int     `yaml:"trigger"`
	Message     string  `yaml:"message"`
	Recovery    string  `yaml:"recovery"`
	Item        int     `yaml:"item"`
	Expect      Outcome `yaml:"expect"`
}

// Validate checks the definition's fields.
func (d Definition) Validate() error {
	if err := validation.ValidateNotEmpty("scenario", "name", d.Name); err != nil {
		return err
	}
	count := DefaultParams().Count
	if d.Count != nil {
		count = *d.Count
	}
	if err := validation.ValidateRange("scenario", d.Start, count); err != nil {
		return err
	}
	switch d.Recovery {
	case "", RecoveryNone, RecoveryResumeNext, RecoveryReturnItem:
	default:
		return rxerrors.NewValidationError("scenario", "recovery", d.Recovery, "unsupported strategy").
			WithHint("use none, resume_next or return_item")
	}
	switch d.Expect {
	case "", OutcomeCompleted, OutcomeFailed:
	default:
		return rxerrors.NewValidationError("scenario", "expect", d.Expect, "unsupported outcome").
			WithHint("use completed or failed")
	}
	return nil
}

// Scenario converts the definition into a runnable Scenario. The definition's
// parameters take precedence over the run's Env.Params.
func (d Definition) Scenario() (Scenario, error) {
	if err := d.Validate(); err != nil {
		return Scenario{}, err
	}

	p := DefaultParams()
	p.Start = d.Start
	p.Trigger = d.Trigger
	if d.Count != nil {
		p.Count = *d.Count
	}
	if d.Message != "" {
		p.Message = d.Message
	}

	description := d.Description
	if description == "" {
		description = fmt.Sprintf("range(%d, %d) failing on %d, recovery %s", p.Start, p.Count, p.Trigger, d.recovery())
	}

	return Scenario{
		Name:        d.Name,
		Kind:        KindObservable,
		Description: description,
		Expect:      d.Expect,
		run: func(ctx context.Context, env Env, rec *recovery) Result {
			env.Params = p
			src := observable.Range(p.Start, p.Count).Map(transform(p.Trigger, p.Message))

			switch d.recovery() {
			case RecoveryResumeNext:
				src = src.OnErrorResumeNext(func(err error) observable.Observable[int] {
					rec.hit()
					return observable.Error[int](err)
				})
			case RecoveryReturnItem:
				src = src.
					DoOnError(func(error) { rec.hit() }).
					OnErrorReturnItem(d.Item)
			}
			return observe(ctx, env, d.Name, src, nil)
		},
	}, nil
}

func (d Definition) recovery() string {
	if d.Recovery == "" {
		return RecoveryNone
	}
	return d.Recovery
}

// Load decodes scenario definitions from r, one per YAML document. Unknown
// fields, empty names and duplicate names are rejected; empty documents are
// skipped.
func Load(r io.Reader) ([]Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var out []Scenario
	seen := make(map[string]bool)
	for i := 0; ; i++ {
		var d *Definition
		if err := dec.Decode(&d); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("decode scenario document %d: %w", i, err)
		}
		if d == nil {
			continue
		}
		if seen[d.Name] {
			return nil, rxerrors.NewValidationError("scenario", "name", d.Name, "duplicate name")
		}
		seen[d.Name] = true

		s, err := d.Scenario()
		if err != nil {
			return nil, fmt.Errorf("scenario document %d: %w", i, err)
		}
		out = append(out, s)
	}
}

// LoadFile reads scenario definitions from the YAML file at path.
func LoadFile(path string) ([]Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenarios: %w", err)
	}
	defer f.Close()

	return Load(f)
}
