// Package predicate models boolean filter expressions over partition,
// key, and value fields, with both an exact per-row evaluator and a
// sound stats-based evaluator used for pruning before a manifest or file
// is opened.
package predicate

import (
	"github.com/strata-db/strata/internal/table/errs"
	"github.com/strata-db/strata/internal/table/types"
	"github.com/strata-db/strata/pkg/errors"
)

// Predicate is a tagged-variant boolean expression. Exactly one of the
// Kind-specific fields is meaningful for a given Kind; this mirrors a
// closed sum type without resorting to an interface-per-variant
// hierarchy, since the set of variants is small and fixed.
type Predicate struct {
	kind  predicateKind
	field int
	value any
	left  *Predicate
	right *Predicate
}

type predicateKind int

const (
	kindEqual predicateKind = iota
	kindAnd
	kindOr
)

// Equal builds a predicate matching rows whose field at fieldIdx equals
// value.
func Equal(fieldIdx int, value any) Predicate {
	return Predicate{kind: kindEqual, field: fieldIdx, value: value}
}

// And builds a conjunction of l and r.
func And(l, r Predicate) Predicate {
	return Predicate{kind: kindAnd, left: &l, right: &r}
}

// Or builds a disjunction of l and r.
func Or(l, r Predicate) Predicate {
	return Predicate{kind: kindOr, left: &l, right: &r}
}

// Test evaluates the predicate exactly against a concrete row. Returns
// FilterTypeMismatch if a referenced field index is out of range or the
// field's value cannot be compared with the literal (int64 and float64
// compare with each other without error).
func (p Predicate) Test(row types.Row) (bool, error) {
	switch p.kind {
	case kindEqual:
		if p.field >= len(row) {
			return false, errors.New(errs.FilterTypeMismatch, "predicate field index out of range", nil)
		}
		return equalValues(row[p.field], p.value)
	case kindAnd:
		l, err := p.left.Test(row)
		if err != nil {
			return false, err
		}
		if !l {
			return false, nil
		}
		return p.right.Test(row)
	case kindOr:
		l, err := p.left.Test(row)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return p.right.Test(row)
	default:
		return false, errors.New(errs.FilterTypeMismatch, "unknown predicate kind", nil)
	}
}

// TestStats conservatively evaluates the predicate against a column
// summary covering rowCount rows. It never returns false for a field
// that could satisfy the predicate: any row inside [Min, Max] is assumed
// reachable, so a range overlapping the literal counts as a pass. This
// soundness guarantee is what makes TestStats safe to use for pruning —
// it may keep more than necessary, never less.
func (p Predicate) TestStats(rowCount int64, stats types.ColumnStats) (bool, error) {
	switch p.kind {
	case kindEqual:
		if rowCount == 0 {
			return false, nil
		}
		if p.field >= len(stats) {
			// No stats recorded for this field: cannot prove absence, so
			// pruning must not discard it.
			return true, nil
		}
		fs := stats[p.field]
		if fs.Min == nil && fs.Max == nil {
			return true, nil
		}
		return rangeCouldContain(fs, p.value)
	case kindAnd:
		l, err := p.left.TestStats(rowCount, stats)
		if err != nil {
			return false, err
		}
		if !l {
			return false, nil
		}
		return p.right.TestStats(rowCount, stats)
	case kindOr:
		l, err := p.left.TestStats(rowCount, stats)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return p.right.TestStats(rowCount, stats)
	default:
		return false, errors.New(errs.FilterTypeMismatch, "unknown predicate kind", nil)
	}
}

func equalValues(a, b any) (bool, error) {
	if a == nil || b == nil {
		return a == nil && b == nil, nil
	}
	cmp, err := safeCompare(a, b)
	if err != nil {
		return false, err
	}
	return cmp == 0, nil
}

func rangeCouldContain(fs types.FieldStats, value any) (bool, error) {
	if fs.Min != nil {
		cmp, err := safeCompare(value, fs.Min)
		if err != nil {
			return false, err
		}
		if cmp < 0 {
			return false, nil
		}
	}
	if fs.Max != nil {
		cmp, err := safeCompare(value, fs.Max)
		if err != nil {
			return false, err
		}
		if cmp > 0 {
			return false, nil
		}
	}
	return true, nil
}

func safeCompare(a, b any) (c int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errs.FilterTypeMismatch, "predicate literal type does not match field type", nil)
		}
	}()
	return types.CompareRows(types.Row{a}, types.Row{b}), nil
}

// BuildPartitionPredicate builds a disjunction-of-conjunctions predicate
// matching any one of rows: one Equal per field, And-combined within a
// row, Or-combined across rows. Rows of arity zero (unpartitioned tables)
// yield no predicate (the zero Predicate is never evaluated by callers
// that check for the "no filter" sentinel via the ok return).
func BuildPartitionPredicate(rows []types.Row) (Predicate, bool) {
	if len(rows) == 0 {
		return Predicate{}, false
	}

	var combined Predicate
	have := false
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		var conj Predicate
		for field, v := range row {
			eq := Equal(field, v)
			if field == 0 {
				conj = eq
			} else {
				conj = And(conj, eq)
			}
		}
		if !have {
			combined = conj
			have = true
		} else {
			combined = Or(combined, conj)
		}
	}
	if !have {
		return Predicate{}, false
	}
	return combined, true
}
