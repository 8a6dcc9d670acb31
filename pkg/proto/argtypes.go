package proto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FlexInt is an integer the vendor app sends as number, numeric string or
// boolean depending on platform and app version.
type FlexInt int

func (i *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*i = 0
		return nil
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*i = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value %q", s)
		}
		return i.set(f)
	case 't':
		*i = 1
		return nil
	case 'f':
		*i = 0
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	return i.set(f)
}

// set stores f truncated to an int. Values an int cannot hold are rejected.
func (i *FlexInt) set(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < float64(math.MinInt) || f >= -float64(math.MinInt) {
		return fmt.Errorf("integer value %v out of range", f)
	}
	*i = FlexInt(f)
	return nil
}

// FlexString is a string the vendor app sometimes sends as a number.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	*s = FlexString(string(b))
	return nil
}
