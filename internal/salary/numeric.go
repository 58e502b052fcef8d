package salary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotNumeric is returned by NumericReject for unparsable input.
var ErrNotNumeric = errors.New("must be a number")

// RawNumber is a client-supplied numeric field before parsing. It accepts
// JSON numbers and strings; null and absent fields are empty.
type RawNumber string

func (n *RawNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*n = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = RawNumber(strings.TrimSpace(s))
	default:
		*n = RawNumber(b)
	}
	return nil
}

// IsSet reports whether a value was supplied.
func (n RawNumber) IsSet() bool {
	return n != ""
}

// NumericPolicy decides what happens to unparsable numeric input.
type NumericPolicy string

const (
	// NumericReject reports unparsable input as a validation error.
	NumericReject NumericPolicy = "reject"
	// NumericCoerce silently maps unparsable input to zero.
	NumericCoerce NumericPolicy = "coerce"
)

// ParseNumericPolicy validates a configured policy name.
func ParseNumericPolicy(s string) (NumericPolicy, error) {
	switch p := NumericPolicy(strings.ToLower(s)); p {
	case NumericReject, NumericCoerce:
		return p, nil
	}
	return "", fmt.Errorf("unknown numeric policy %q", s)
}

// Decimal parses n. An unset value is zero under both policies.
func (p NumericPolicy) Decimal(n RawNumber) (decimal.Decimal, error) {
	if !n.IsSet() {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		if p == NumericCoerce {
			return decimal.Zero, nil
		}
		return decimal.Zero, ErrNotNumeric
	}
	return d, nil
}

// Int parses n as a whole number.
func (p NumericPolicy) Int(n RawNumber) (int, error) {
	d, err := p.Decimal(n)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		if p == NumericCoerce {
			return 0, nil
		}
		return 0, ErrNotNumeric
	}
	return int(d.IntPart()), nil
}
