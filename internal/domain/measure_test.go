package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMeasurePresence(t *testing.T) {
	var req IngestRequest
	if err := json.Unmarshal([]byte(`{"deviceId":"a","voltage":null,"current":0}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !req.Voltage.Present() {
		t.Fatalf("explicit null must count as present")
	}
	if !req.Current.Present() {
		t.Fatalf("zero must count as present")
	}
	if req.Power.Present() {
		t.Fatalf("missing key must not be present")
	}
}

func TestMeasureTruthy(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{`"node-1"`, true},
		{`""`, false},
		{`0`, false},
		{`0.0`, false},
		{`7`, true},
		{`false`, false},
		{`true`, true},
		{`null`, false},
		{`{}`, true},
	}
	for _, tt := range tests {
		var m Measure
		if err := json.Unmarshal([]byte(tt.raw), &m); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.raw, err)
		}
		if got := m.Truthy(); got != tt.want {
			t.Errorf("Truthy(%s) = %v, want %v", tt.raw, got, tt.want)
		}
	}

	if (Measure{}).Truthy() {
		t.Errorf("absent measure is falsy")
	}
}

func TestMeasureDecimal(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`230.5`, "230.5"},
		{`"12.25"`, "12.25"},
		{`" 3 "`, "3"},
		{`"abc"`, "0"},
		{`true`, "0"},
		{`null`, "0"},
		{`1e3`, "1000"},
		{`1e400`, "0"},
		{`"-1e400"`, "0"},
	}
	for _, tt := range tests {
		var m Measure
		if err := json.Unmarshal([]byte(tt.raw), &m); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.raw, err)
		}
		if !m.Decimal().Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("Decimal(%s) = %s, want %s", tt.raw, m.Decimal(), tt.want)
		}
	}
}

func TestMeasureKeepsRawValue(t *testing.T) {
	var m Measure
	if err := json.Unmarshal([]byte(`12.50`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "12.50" {
		t.Fatalf("expected the reported text back, got %s", out)
	}
	if m.Text() != "12.50" {
		t.Fatalf("unexpected text %q", m.Text())
	}
}

func TestNewMeasureNormalisesNumbers(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{230.5, "230.5"},
		{float32(0.5), "0.5"},
		{42, "42"},
		{int64(-7), "-7"},
		{decimal.RequireFromString("1.10"), "1.1"},
		{"text", "text"},
	}
	for _, tt := range tests {
		if got := NewMeasure(tt.in).Text(); got != tt.want {
			t.Errorf("NewMeasure(%v).Text() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 10, 19, 14, 5, 9, 123456789, time.FixedZone("CEST", 2*3600))
	if got := FormatTimestamp(ts); got != "2026-10-19T12:05:09.123Z" {
		t.Fatalf("unexpected timestamp %s", got)
	}
}
