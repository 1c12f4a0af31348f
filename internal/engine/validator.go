package engine

import (
	"time"

	"github.com/richd0tcom/powrmet/internal/domain"
)

// InvalidPayloadMessage is what devices get back for any missing field.
const InvalidPayloadMessage = "Invalid data format. Missing one or more required fields."

// IngestValidator turns an inbound request into a Sample stamped with the
// server clock. It does not touch the store.
type IngestValidator struct {
	now func() time.Time
}

func NewIngestValidator(now func() time.Time) *IngestValidator {
	if now == nil {
		now = time.Now
	}
	return &IngestValidator{now: now}
}

// Validate is Check followed by stamping timestamp_server with the clock.
func (v *IngestValidator) Validate(req domain.IngestRequest) (domain.Sample, error) {
	s, err := v.Check(req)
	if err != nil {
		return domain.Sample{}, err
	}
	s.TimestampServer = v.Stamp()
	return s, nil
}

// Stamp renders the current clock reading as a timestamp_server value.
func (v *IngestValidator) Stamp() string {
	return domain.FormatTimestamp(v.now())
}

// Check rejects a request whose deviceId is falsy or whose readings are
// absent. Zero, false and null readings are accepted as given. The returned
// sample has no timestamp_server yet.
func (v *IngestValidator) Check(req domain.IngestRequest) (domain.Sample, error) {
	if !req.DeviceID.Truthy() {
		return domain.Sample{}, &domain.ValidationError{Field: "deviceId", Reason: InvalidPayloadMessage}
	}

	required := []struct {
		name string
		m    domain.Measure
	}{
		{"timestamp", req.Timestamp},
		{"voltage", req.Voltage},
		{"current", req.Current},
		{"power", req.Power},
		{"energy", req.Energy},
		{"rssi", req.RSSI},
	}
	for _, f := range required {
		if !f.m.Present() {
			return domain.Sample{}, &domain.ValidationError{Field: f.name, Reason: InvalidPayloadMessage}
		}
	}

	return domain.Sample{
		DeviceID:        req.DeviceID.Text(),
		TimestampDevice: req.Timestamp,
		Voltage:         req.Voltage,
		Current:         req.Current,
		Power:           req.Power,
		Energy:          req.Energy,
		RSSI:            req.RSSI,
	}, nil
}
