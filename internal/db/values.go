package db

import (
	"encoding/json"

	"github.com/richd0tcom/powrmet/internal/domain"
)

// storedValue converts a Measure into a value drivers can encode natively:
// integers stay integers, other numbers become float64, everything else is
// passed through.
func storedValue(m domain.Measure) any {
	n, ok := m.Raw().(json.Number)
	if !ok {
		return m.Raw()
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
