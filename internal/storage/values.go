package storage

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Metrics is a metric map whose non-finite values are stored as the strings
// "NaN", "+Inf" and "-Inf". Diverging runs produce them.
type Metrics map[string]float64

func (m Metrics) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = encodeFloat(v)
	}
	return json.Marshal(out)
}

func (m *Metrics) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*m = nil
		return nil
	}
	out := make(Metrics, len(raw))
	for k, r := range raw {
		v, err := decodeFloat(r)
		if err != nil {
			return fmt.Errorf("metric %s: %w", k, err)
		}
		out[k] = v
	}
	*m = out
	return nil
}

// Profile is an Ez snapshot with the same encoding as Metrics.
type Profile []float64

func (p Profile) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	out := make([]json.RawMessage, len(p))
	for i, v := range p {
		out[i] = encodeFloat(v)
	}
	return json.Marshal(out)
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*p = nil
		return nil
	}
	out := make(Profile, len(raw))
	for i, r := range raw {
		v, err := decodeFloat(r)
		if err != nil {
			return fmt.Errorf("cell %d: %w", i, err)
		}
		out[i] = v
	}
	*p = out
	return nil
}

func encodeFloat(v float64) json.RawMessage {
	switch {
	case math.IsNaN(v):
		return json.RawMessage(`"NaN"`)
	case math.IsInf(v, 1):
		return json.RawMessage(`"+Inf"`)
	case math.IsInf(v, -1):
		return json.RawMessage(`"-Inf"`)
	}
	return json.RawMessage(strconv.FormatFloat(v, 'g', -1, 64))
}

func decodeFloat(r json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(r, &s); err == nil {
		switch s {
		case "NaN":
			return math.NaN(), nil
		case "+Inf":
			return math.Inf(1), nil
		case "-Inf":
			return math.Inf(-1), nil
		}
		return 0, fmt.Errorf("invalid number %q", s)
	}
	var v float64
	err := json.Unmarshal(r, &v)
	return v, err
}
