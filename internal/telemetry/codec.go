package telemetry

import (
	"encoding/json"
	"strings"
)

// MaxPayloadBytes is the decode byte budget. Payloads larger than
// this are rejected before sanitizing rather than truncated, bounding
// parser memory use the same way the device firmware bounded its
// JSON document allocation.
const MaxPayloadBytes = 2048

// wireReading is the on-wire JSON shape. Pointer fields distinguish
// "absent" from "present with zero value"; Decode folds absent keys
// to their defaults. Unrecognized keys are ignored.
type wireReading struct {
	CO2          *int     `json:"co2"`
	THI          *float64 `json:"thi"`
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
	ComfortLevel *string  `json:"comfort_level"`
	Timestamp    *uint64  `json:"timestamp"`
}

// Sanitize filters raw down to printable ASCII (32..126 inclusive),
// discarding control bytes and multi-byte fragments.
func Sanitize(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Decode parses a raw broker payload into a Reading.
//
// The pipeline is: byte budget check, printable-ASCII sanitize,
// envelope pre-check (nonzero length, starts with '{', ends with '}'
// after trimming), then a JSON parse. The envelope check is a cheap
// pre-filter: payloads that fail it never reach the parser.
//
// A structurally acceptable document always yields a Reading, even
// the empty object {} — presence of recognized keys is not required.
// Partial telemetry (one sensor down, others live) must still update
// the store, and {} is the degenerate end of that case.
//
// All failures return a *DecodeError.
func Decode(raw []byte) (Reading, error) {
	if len(raw) > MaxPayloadBytes {
		return Reading{}, &DecodeError{Kind: KindCapacityExceeded}
	}

	text := strings.TrimSpace(Sanitize(raw))
	if len(text) == 0 || !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return Reading{}, &DecodeError{Kind: KindMalformedEnvelope}
	}

	var w wireReading
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return Reading{}, &DecodeError{Kind: KindParseFailure, Detail: err.Error()}
	}

	var r Reading
	if w.CO2 != nil {
		r.CO2 = *w.CO2
	}
	if w.THI != nil {
		r.THI = *w.THI
	}
	if w.Temperature != nil {
		r.Temperature = *w.Temperature
	}
	if w.Humidity != nil {
		r.Humidity = *w.Humidity
	}
	if w.ComfortLevel != nil {
		r.ComfortLevel = *w.ComfortLevel
	}
	if w.Timestamp != nil {
		r.Timestamp = *w.Timestamp
	}
	return r, nil
}
