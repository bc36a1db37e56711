package evo

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

var ErrInvalidCriteria = errors.New("invalid strategy criteria")

// Criteria holds the numeric parameters of one strategy. Booleans are stored
// as 0 or 1 and grouped parameters use dotted keys such as promotion.maxCount.
type Criteria map[string]float64

// CriteriaError reports a criteria value a strategy cannot work with.
type CriteriaError struct {
	Strategy string
	Field    string
	Reason   string
}

func (e *CriteriaError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Strategy, e.Field, e.Reason)
}

func (e *CriteriaError) Unwrap() error {
	return ErrInvalidCriteria
}

func (c Criteria) Clone() Criteria {
	if c == nil {
		return Criteria{}
	}
	return maps.Clone(c)
}

func (c Criteria) Has(key string) bool {
	_, ok := c[key]
	return ok
}

func (c Criteria) Float(key string, fallback float64) float64 {
	if v, ok := c[key]; ok {
		return v
	}
	return fallback
}

func (c Criteria) Bool(key string, fallback bool) bool {
	if v, ok := c[key]; ok {
		return v != 0
	}
	return fallback
}

// Keys returns the criteria keys in sorted order.
func (c Criteria) Keys() []string {
	return slices.Sorted(maps.Keys(c))
}

func (c Criteria) String() string {
	parts := make([]string, 0, len(c))
	for _, k := range c.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%g", k, c[k]))
	}
	return strings.Join(parts, " ")
}

// criteriaReader reads typed values and remembers the first failure so that
// constructors can check a whole record before returning.
type criteriaReader struct {
	strategy string
	c        Criteria
	err      error
}

func readCriteria(strategy string, c Criteria) *criteriaReader {
	return &criteriaReader{strategy: strategy, c: c}
}

func (r *criteriaReader) fail(field, reason string) {
	if r.err == nil {
		r.err = &CriteriaError{Strategy: r.strategy, Field: field, Reason: reason}
	}
}

func (r *criteriaReader) number(key string, fallback float64) float64 {
	v := r.c.Float(key, fallback)
	if math.IsNaN(v) {
		r.fail(key, "must be a number")
		return fallback
	}
	return v
}

// probability reads a value in [0,1].
func (r *criteriaReader) probability(key string, fallback float64) float64 {
	v := r.number(key, fallback)
	if v < 0 || v > 1 {
		r.fail(key, fmt.Sprintf("must be in [0,1], got %g", v))
	}
	return v
}

// count reads a whole number >= minimum. +Inf is accepted when unbounded is set.
func (r *criteriaReader) count(key string, fallback, minimum int, unbounded bool) int {
	if !r.c.Has(key) {
		return fallback
	}
	v := r.number(key, float64(fallback))
	if math.IsInf(v, 1) && unbounded {
		return math.MaxInt
	}
	if math.IsInf(v, 0) || v != math.Trunc(v) {
		r.fail(key, fmt.Sprintf("must be a whole number, got %g", v))
		return fallback
	}
	if v < float64(minimum) {
		r.fail(key, fmt.Sprintf("must be >= %d, got %g", minimum, v))
		return fallback
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}
