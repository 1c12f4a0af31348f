package domain

type MetricStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// Summary is the rollup of one device over a trailing window.
//
// TotalEnergyWh is last-minus-first of the cumulative energy counter. When
// that difference is negative the counter is assumed to have reset inside the
// window and the last reading is reported instead. This is an approximation:
// any decrease, including a bad reading, is treated as a reset.
type Summary struct {
	DeviceID      string      `json:"deviceId"`
	PeriodHours   float64     `json:"periodHours"`
	TotalEnergyWh float64     `json:"totalEnergyWh"`
	Voltage       MetricStats `json:"voltage"`
	Current       MetricStats `json:"current"`
	Power         MetricStats `json:"power"`
	DataPoints    int         `json:"dataPoints"`
}
