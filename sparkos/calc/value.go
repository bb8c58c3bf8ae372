package calc

// Value is an optional float64.
//
// The accumulator uses it to tell "no result yet" apart from any real number,
// including NaN.
type Value struct {
	v  float64
	ok bool
}

// None returns an absent Value.
func None() Value { return Value{} }

// Some returns a present Value holding f.
func Some(f float64) Value { return Value{v: f, ok: true} }

// Get returns the held number and whether one is present.
func (v Value) Get() (float64, bool) { return v.v, v.ok }

// Present reports whether v holds a number.
func (v Value) Present() bool { return v.ok }

func (v Value) String() string {
	if !v.ok {
		return "none"
	}
	return FormatResult(v.v)
}
