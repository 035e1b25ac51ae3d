// Package models defines the core domain model for the company directory.
// It includes the Company record and the Size descriptor, which accepts
// either text or a number in the data file.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Company defines a single directory record. Records are immutable once
// loaded; the directory never writes them back.
type Company struct {
	// ID is the lookup key. Uniqueness is assumed, not enforced.
	ID int64 `json:"id" validate:"gt=0"`
	// Name is the primary search field.
	Name string `json:"name" validate:"required"`
	// Industry is a categorical facet, also searched by free text.
	Industry string `json:"industry"`
	// Location is a categorical facet.
	Location string `json:"location"`
	// Size is display-only.
	Size Size `json:"size"`
	// Rating is display-only.
	Rating float64 `json:"rating"`
}

// UnmarshalJSON decodes a record leniently. The id may be any integral JSON
// number or a numeric string, so 2 and 2.0 are the same key, and the
// display-only rating may be a number, a string or null.
func (c *Company) UnmarshalJSON(data []byte) error {
	type plain Company
	var raw struct {
		plain
		ID     flexID     `json:"id"`
		Rating flexRating `json:"rating"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Company(raw.plain)
	c.ID = int64(raw.ID)
	c.Rating = float64(raw.Rating)
	return nil
}

type flexID int64

func (f *flexID) UnmarshalJSON(data []byte) error {
	n, ok, err := jsonNumber(data)
	if err != nil || !ok {
		*f = 0
		return err
	}
	if i, err := strconv.ParseInt(n, 10, 64); err == nil {
		*f = flexID(i)
		return nil
	}
	v, err := strconv.ParseFloat(n, 64)
	if err != nil || v != math.Trunc(v) || math.Abs(v) > 1<<53 {
		return fmt.Errorf("id %s is not an integer", n)
	}
	*f = flexID(int64(v))
	return nil
}

type flexRating float64

func (f *flexRating) UnmarshalJSON(data []byte) error {
	n, ok, err := jsonNumber(data)
	if err != nil || !ok {
		*f = 0
		return err
	}
	// Unreadable ratings show as zero rather than hiding the record.
	v, _ := strconv.ParseFloat(n, 64)
	*f = flexRating(v)
	return nil
}

// jsonNumber returns the number held by a JSON number or string literal.
// ok is false for null and the empty string.
func jsonNumber(data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", false, nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", false, err
		}
		s = strings.TrimSpace(s)
		return s, s != "", nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", false, err
	}
	return n.String(), true, nil
}

// Collection is the on-disk layout of the data file.
type Collection struct {
	Companies []Company `json:"companies"`
}

// Size is a display-only headcount descriptor such as "51-200" or 120.
// Numeric tells whether the source value was a JSON number so it can be
// encoded back in the same kind.
type Size struct {
	Value   string
	Numeric bool
}

// TextSize returns a textual size descriptor.
func TextSize(v string) Size {
	return Size{Value: v}
}

// NumericSize returns a numeric size descriptor.
func NumericSize(n float64) Size {
	return Size{Value: strconv.FormatFloat(n, 'f', -1, 64), Numeric: true}
}

// String returns the descriptor as displayed.
func (s Size) String() string {
	return s.Value
}

// MarshalJSON encodes the size as a number when it was read as one.
func (s Size) MarshalJSON() ([]byte, error) {
	if s.Numeric {
		if _, err := strconv.ParseFloat(s.Value, 64); err == nil {
			return []byte(s.Value), nil
		}
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON accepts a string, a number or null.
func (s *Size) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = Size{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = TextSize(v)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("size must be text or a number: %w", err)
		}
		*s = Size{Value: n.String(), Numeric: true}
		return nil
	}
}
