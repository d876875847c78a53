package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

var ErrInvalidNumeric = errors.New("invalid numeric value")

// Numeric is an arbitrary precision integer stored in NUMERIC(78, 0) columns
// and rendered as a decimal string in JSON.
type Numeric big.Int

func NewNumeric(x *big.Int) *Numeric {
	if x == nil {
		return nil
	}
	return (*Numeric)(new(big.Int).Set(x))
}

func NumericFromUint64(x uint64) *Numeric {
	return (*Numeric)(new(big.Int).SetUint64(x))
}

func (n *Numeric) Big() *big.Int {
	if n == nil {
		return nil
	}
	return new(big.Int).Set((*big.Int)(n))
}

func (n *Numeric) String() string {
	if n == nil {
		return "<nil>"
	}
	return (*big.Int)(n).String()
}

func (n *Numeric) Value() (driver.Value, error) {
	if n == nil {
		return nil, nil
	}
	return (*big.Int)(n).String(), nil
}

func (n *Numeric) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case int64:
		(*big.Int)(n).SetInt64(v)
		return nil
	default:
		return fmt.Errorf("can't scan %T into numeric: %w", src, ErrInvalidNumeric)
	}
	if _, ok := (*big.Int)(n).SetString(s, 10); !ok {
		return fmt.Errorf("can't parse %q: %w", s, ErrInvalidNumeric)
	}
	return nil
}

func (n *Numeric) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

func (n *Numeric) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("can't unmarshal numeric: %w", err)
	}
	return n.Scan(s)
}
