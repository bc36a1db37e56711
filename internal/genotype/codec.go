package genotype

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// Precision is the number of fractional digits carried by every digit group.
	Precision = 19
	// GroupWidth is the digit count of a group encoded at Precision.
	GroupWidth = Precision + 1
)

var (
	ErrValueOutOfDomain = errors.New("value outside codec domain [0, 10)")
	ErrMalformedGroup   = errors.New("malformed digit group")
)

// DigitGroup is one encoded bias or weight: a leading integer digit followed by
// the fractional digits, each stored as a value in 0..9.
type DigitGroup []byte

// Encode formats value as a fixed-point decimal with precision fractional digits
// and splits it into single digits.
func Encode(value float64, precision int) (DigitGroup, error) {
	if precision < 0 {
		return nil, fmt.Errorf("precision must be >= 0, got %d", precision)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 || value >= 10 {
		return nil, fmt.Errorf("%w: %v", ErrValueOutOfDomain, value)
	}

	text := strconv.FormatFloat(value, 'f', precision, 64)
	text = strings.Replace(text, ".", "", 1)
	// 9.99999... can round up to "10.000..." which no longer fits one leading digit.
	if len(text) != precision+1 {
		return nil, fmt.Errorf("%w: %v rounds to %s", ErrValueOutOfDomain, value, text)
	}

	group := make(DigitGroup, len(text))
	for i := 0; i < len(text); i++ {
		group[i] = text[i] - '0'
	}
	return group, nil
}

// MustEncode is Encode for values known to be in range.
func MustEncode(value float64, precision int) DigitGroup {
	group, err := Encode(value, precision)
	if err != nil {
		panic(err)
	}
	return group
}

// Decode rebuilds the float from a digit group by placing the decimal point
// after the first digit.
func Decode(group DigitGroup) (float64, error) {
	if len(group) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrMalformedGroup)
	}
	var b strings.Builder
	b.Grow(len(group) + 1)
	for i, digit := range group {
		if digit > 9 {
			return 0, fmt.Errorf("%w: digit %d at %d", ErrMalformedGroup, digit, i)
		}
		b.WriteByte('0' + digit)
		if i == 0 {
			b.WriteByte('.')
		}
	}
	value, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedGroup, err)
	}
	return value, nil
}

func (g DigitGroup) Clone() DigitGroup {
	if g == nil {
		return nil
	}
	out := make(DigitGroup, len(g))
	copy(out, g)
	return out
}

func (g DigitGroup) String() string {
	var b strings.Builder
	b.Grow(len(g))
	for _, digit := range g {
		b.WriteByte('0' + digit)
	}
	return b.String()
}
