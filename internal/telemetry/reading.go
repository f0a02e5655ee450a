// Package telemetry decodes inbound sensor payloads.
//
// Payloads arrive from the broker as opaque byte buffers. Decode
// sanitizes them down to printable ASCII, applies a cheap envelope
// pre-check, and only then hands the text to the JSON parser. Every
// failure mode is represented by a [DecodeError] so the display layer
// can paint a category and a detail line without string matching.
package telemetry

// Reading is a single decoded sensor sample. All fields are optional
// on the wire; absent keys decode to their zero value. Values are
// carried verbatim — no unit conversion, no range clamping.
type Reading struct {
	// CO2 is the carbon dioxide concentration in ppm.
	CO2 int
	// THI is the thermal comfort (temperature-humidity) index.
	THI float64
	// Temperature is the ambient temperature in degrees Celsius.
	Temperature float64
	// Humidity is the relative humidity in percent.
	Humidity float64
	// ComfortLevel is a free-text comfort label. May be empty.
	ComfortLevel string
	// Timestamp is the producer-supplied origin time in epoch
	// seconds. It is passed through without local validation.
	Timestamp uint64
}
