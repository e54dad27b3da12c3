package signals

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	sc "signal_chart"
)

// envelope is the outer object returned by the endpoint; Body holds the
// JSON-encoded counts as a string.
type envelope struct {
	Body *string `json:"body"`
}

// Decode parses the two-level response into counts. Any failure is reported
// as ErrDecode and no partial result is returned.
func Decode(raw []byte) (sc.SignalCounts, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return sc.SignalCounts{}, fmt.Errorf("%w: envelope: %v", ErrDecode, err)
	}
	if env.Body == nil || strings.TrimSpace(*env.Body) == "" {
		return sc.SignalCounts{}, fmt.Errorf("%w: envelope has no body", ErrDecode)
	}

	var counts sc.SignalCounts
	if err := json.Unmarshal([]byte(*env.Body), &counts); err != nil {
		return sc.SignalCounts{}, fmt.Errorf("%w: body: %v", ErrDecode, err)
	}
	for _, s := range sc.PresentationOrder {
		v := counts.Count(s)
		if v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return sc.SignalCounts{}, fmt.Errorf("%w: %s count %v is not a non-negative number", ErrDecode, s, v)
		}
	}
	return counts, nil
}
