package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Suppressible is a numeric cell that the backend may replace with a
// small-cell marker such as "<5". It unmarshals from either a JSON number
// or a JSON string and remembers which form it arrived in.
type Suppressible struct {
	Value      float64
	Display    string
	Suppressed bool
}

// Num builds an unsuppressed value.
func Num(v float64) Suppressible {
	return Suppressible{Value: v, Display: formatCell(v)}
}

// Masked builds a suppressed cell with the given marker, e.g. "<5".
func Masked(marker string) Suppressible {
	return Suppressible{Display: marker, Suppressed: true}
}

func (s *Suppressible) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var marker string
		if err := json.Unmarshal(b, &marker); err != nil {
			return err
		}
		s.Display = marker
		s.Suppressed = true
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s.Value = v
	s.Display = formatCell(v)
	s.Suppressed = false
	return nil
}

func (s Suppressible) MarshalJSON() ([]byte, error) {
	if s.Suppressed {
		return json.Marshal(s.Display)
	}
	return json.Marshal(s.Value)
}

func (s Suppressible) String() string {
	return s.Display
}

// Int returns the value truncated to an int (counts). Zero when suppressed.
func (s Suppressible) Int() int {
	if s.Suppressed {
		return 0
	}
	return int(s.Value)
}

func formatCell(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SampleValues tolerates heterogeneous JSON arrays (numbers, booleans,
// strings) by coercing every element to its string form. Backends report
// raw cell samples without normalizing types.
type SampleValues []string

func (sv *SampleValues) UnmarshalJSON(b []byte) error {
	var raw []any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case float64:
			out = append(out, formatCell(t))
		case bool:
			out = append(out, strconv.FormatBool(t))
		case nil:
			// null samples carry no information
		default:
			enc, err := json.Marshal(t)
			if err != nil {
				return err
			}
			out = append(out, string(enc))
		}
	}
	*sv = out
	return nil
}
