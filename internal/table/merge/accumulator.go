package merge

import "github.com/strata-db/strata/internal/table/types"

// Accumulator combines the records sharing one key into a single merged
// record. A reader calls Reset once per key with the newest record seen,
// then Add for every further record sharing that key in newest-to-oldest
// order, and finally Result to obtain the merged value.
//
// This is a tagged variant rather than an interface hierarchy only in
// spirit: Go has no closed-sum-type syntax, so the two concrete
// implementations below stand in for Deduplicate and Sum/Reduce.
type Accumulator interface {
	Reset(key, firstValue types.Row, kind types.Kind)
	Add(value types.Row, kind types.Kind)
	Result() (value types.Row, kind types.Kind)
}

// Deduplicate keeps the newest record for a key and discards the rest.
// Because the reader feeds records newest-first, the value captured at
// Reset is already the one to keep.
type Deduplicate struct {
	value types.Row
	kind  types.Kind
}

// NewDeduplicate creates a Deduplicate accumulator.
func NewDeduplicate() *Deduplicate {
	return &Deduplicate{}
}

func (d *Deduplicate) Reset(_ types.Row, firstValue types.Row, kind types.Kind) {
	d.value = firstValue
	d.kind = kind
}

func (d *Deduplicate) Add(_ types.Row, _ types.Kind) {}

func (d *Deduplicate) Result() (types.Row, types.Kind) {
	return d.value, d.kind
}

// Reduce folds every ADD record sharing a key through an associative
// combine function. DELETE records are treated as absent from the fold:
// an older delete behind a newer add contributes nothing, since the
// newer write already superseded it.
type Reduce struct {
	combine func(a, b types.Row) types.Row
	value   types.Row
	kind    types.Kind
}

// NewReduce creates a Reduce accumulator using combine to fold values.
func NewReduce(combine func(a, b types.Row) types.Row) *Reduce {
	return &Reduce{combine: combine}
}

func (r *Reduce) Reset(_ types.Row, firstValue types.Row, kind types.Kind) {
	r.value = firstValue
	r.kind = kind
}

func (r *Reduce) Add(value types.Row, kind types.Kind) {
	if kind != types.KindAdd {
		return
	}
	r.value = r.combine(r.value, value)
}

func (r *Reduce) Result() (types.Row, types.Kind) {
	return r.value, r.kind
}
