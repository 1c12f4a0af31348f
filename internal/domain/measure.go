package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Measure is a single telemetry value exactly as the device reported it.
// Devices are not trusted to send well-typed JSON, so the raw scalar is kept
// (numbers as json.Number, strings, booleans, null) and only interpreted
// numerically when aggregated.
type Measure struct {
	raw     any
	present bool
}

// NewMeasure builds a present Measure from a decoded value. Go numeric types
// are normalised to json.Number so that every adapter round-trips the same way.
func NewMeasure(v any) Measure {
	switch n := v.(type) {
	case float64:
		return Measure{raw: json.Number(strconv.FormatFloat(n, 'f', -1, 64)), present: true}
	case float32:
		return Measure{raw: json.Number(strconv.FormatFloat(float64(n), 'f', -1, 32)), present: true}
	case int:
		return Measure{raw: json.Number(strconv.Itoa(n)), present: true}
	case int32:
		return Measure{raw: json.Number(strconv.FormatInt(int64(n), 10)), present: true}
	case int64:
		return Measure{raw: json.Number(strconv.FormatInt(n, 10)), present: true}
	case decimal.Decimal:
		return Measure{raw: json.Number(n.String()), present: true}
	}
	return Measure{raw: v, present: true}
}

// Num is shorthand for a numeric Measure.
func Num(v float64) Measure { return NewMeasure(v) }

// Present reports whether the value was supplied at all. An explicit JSON
// null counts as supplied.
func (m Measure) Present() bool { return m.present }

// Raw returns the stored value: json.Number, string, bool, nil, or a decoded
// JSON object/array.
func (m Measure) Raw() any { return m.raw }

// Truthy mirrors how a loosely typed client would treat the value in a
// boolean context: null, "", false and 0 are falsy.
func (m Measure) Truthy() bool {
	if !m.present {
		return false
	}
	switch v := m.raw.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	}
	return true
}

// Decimal parses the value as a number. Anything that does not parse, or does
// not fit a float64, yields zero; aggregation never fails on a bad reading.
func (m Measure) Decimal() decimal.Decimal {
	var text string
	switch v := m.raw.(type) {
	case json.Number:
		text = v.String()
	case string:
		text = strings.TrimSpace(v)
	default:
		return decimal.Zero
	}
	d, err := decimal.NewFromString(text)
	if err != nil || math.IsInf(d.InexactFloat64(), 0) {
		return decimal.Zero
	}
	return d
}

// Float is Decimal converted to float64.
func (m Measure) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// Text renders the value as a plain string, used when a Measure carries an
// identifier rather than a reading.
func (m Measure) Text() string {
	switch v := m.raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	b, err := json.Marshal(m.raw)
	if err != nil {
		return ""
	}
	return string(b)
}

func (m Measure) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.raw)
}

func (m *Measure) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	m.raw = v
	m.present = true
	return nil
}
