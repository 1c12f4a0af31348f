package db

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestMongoDocRoundTrip(t *testing.T) {
	s := testSample("node-1", "2026-10-19T12:00:00.000Z", 12.5)

	doc := toDoc(s)
	if doc.TimestampMCU != int64(1700) {
		t.Fatalf("integer readings should be stored as int64, got %#v", doc.TimestampMCU)
	}
	if doc.Energy != 12.5 {
		t.Fatalf("fractional readings should be stored as float64, got %#v", doc.Energy)
	}
	if doc.Voltage != "230.1" {
		t.Fatalf("string readings should be stored unchanged, got %#v", doc.Voltage)
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("bson marshal: %v", err)
	}
	var decoded sampleDoc
	if err := bson.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("bson unmarshal: %v", err)
	}

	want, _ := json.Marshal(s)
	got, _ := json.Marshal(fromDoc(decoded))
	if string(got) != string(want) {
		t.Fatalf("round trip changed the record\n got %s\nwant %s", got, want)
	}
}

func TestMongoRangeFilter(t *testing.T) {
	f := rangeFilter("2026-10-18T12:00:00.000Z")
	cond, ok := f["timestamp_server"].(bson.M)
	if !ok {
		t.Fatalf("expected timestamp_server condition, got %#v", f)
	}
	if cond["$gte"] != "2026-10-18T12:00:00.000Z" {
		t.Fatalf("unexpected lower bound %#v", cond["$gte"])
	}
	if _, ok := f["deviceId"]; ok {
		t.Fatalf("device filtering belongs to the engine, not the store query")
	}
}
