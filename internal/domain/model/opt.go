// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"math"
	"strconv"
)

// Numeric is the set of value types an Opt may carry.
type Numeric interface {
	~int64 | ~float64 | ~string
}

// Opt is a nullable value. The zero Opt is absent and compares equal to
// every other absent Opt of the same type, which lets it act as a map key
// component.
type Opt[T Numeric] struct {
	Val T
	Ok  bool
}

// Some returns a present Opt holding v.
func Some[T Numeric](v T) Opt[T] { return Opt[T]{Val: v, Ok: true} }

// None returns an absent Opt.
func None[T Numeric]() Opt[T] { return Opt[T]{} }

// Or returns the held value, or def when absent.
func (o Opt[T]) Or(def T) T {
	if o.Ok {
		return o.Val
	}
	return def
}

// Ptr returns a pointer to a copy of the value, or nil when absent.
func (o Opt[T]) Ptr() *T {
	if !o.Ok {
		return nil
	}
	v := o.Val
	return &v
}

// MarshalJSON renders an absent value as null.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.Ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.Val)
}

// UnmarshalJSON accepts null as absent.
func (o *Opt[T]) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = Opt[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// Float converts a loosely typed cell into a float. Strings are parsed;
// nil, empty, unparseable and non-finite input are absent.
func Float(v any) Opt[float64] {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case int32:
		f = float64(t)
	case json.Number:
		x, err := t.Float64()
		if err != nil {
			return Opt[float64]{}
		}
		f = x
	case string:
		if t == "" || t == "NA" {
			return Opt[float64]{}
		}
		x, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return Opt[float64]{}
		}
		f = x
	default:
		return Opt[float64]{}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Opt[float64]{}
	}
	return Some(f)
}

// Int converts a loosely typed cell into an integer. Floats are truncated
// only when they hold an integral value.
func Int(v any) Opt[int64] {
	switch t := v.(type) {
	case int64:
		return Some(t)
	case int:
		return Some(int64(t))
	case int32:
		return Some(int64(t))
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Some(i)
		}
		return integral(Float(t))
	case string:
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			return Some(i)
		}
		return integral(Float(t))
	default:
		return integral(Float(v))
	}
}

func integral(f Opt[float64]) Opt[int64] {
	if !f.Ok || f.Val != float64(int64(f.Val)) {
		return Opt[int64]{}
	}
	return Some(int64(f.Val))
}

// Ident converts a loosely typed cell into an identifier string. Integral
// numbers render without a fractional part so 2023090700 and 2023090700.0
// name the same game.
func Ident(v any) Opt[string] {
	switch t := v.(type) {
	case nil:
		return Opt[string]{}
	case string:
		if t == "" || t == "NA" {
			return Opt[string]{}
		}
		return Some(t)
	case json.Number:
		if i := Int(t); i.Ok {
			return Some(strconv.FormatInt(i.Val, 10))
		}
		return Some(t.String())
	default:
		if i := Int(v); i.Ok {
			return Some(strconv.FormatInt(i.Val, 10))
		}
		if f := Float(v); f.Ok {
			return Some(strconv.FormatFloat(f.Val, 'g', -1, 64))
		}
		return Opt[string]{}
	}
}
