package telemetry

import "fmt"

// Kind classifies a decode failure.
type Kind int

const (
	// KindMalformedEnvelope means the payload failed the structural
	// pre-check: empty after sanitizing, or not brace-delimited.
	KindMalformedEnvelope Kind = iota
	// KindParseFailure means the JSON parser rejected the document.
	KindParseFailure
	// KindCapacityExceeded means the payload exceeded the decode
	// byte budget.
	KindCapacityExceeded
)

// DecodeError is the failure result of [Decode]. Kind selects the
// error panel category; Detail carries the underlying diagnostic
// where one exists.
type DecodeError struct {
	Kind   Kind
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("decode %s", e.Category())
	}
	return fmt.Sprintf("decode %s: %s", e.Category(), e.Detail)
}

// Category returns the short label shown on the error panel.
func (e *DecodeError) Category() string {
	switch e.Kind {
	case KindMalformedEnvelope:
		return "Invalid JSON"
	case KindParseFailure:
		return "Parse Failed"
	case KindCapacityExceeded:
		return "Too Large"
	default:
		return "Decode Error"
	}
}
