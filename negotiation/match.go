package negotiation

import (
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
)

// Match is the outcome of a successful selection.
type Match[C any] struct {
	// Descriptor of the selected codec.
	Descriptor *Descriptor[C]

	// Declared is the codec media type that matched, with its intrinsic quality.
	Declared mimetype.Range

	// Requested is the client range (producers) or content type (consumers) that
	// matched. Zero when the fallback was used.
	Requested mimetype.Range

	// Fallback is set when no declared media type matched and the registry fallback
	// was returned instead.
	Fallback bool
}

// Codec returns the selected codec.
func (match Match[C]) Codec() C {
	return match.Descriptor.codec
}

// MediaType returns the most concrete of the declared and requested media types.
// This is the value to advertise as the Content-Type of a produced payload.
func (match Match[C]) MediaType() mimetype.MediaType {
	if match.Requested.IsZero() {
		return match.Declared.MediaType
	}
	if match.Declared.Wildcards() <= match.Requested.Wildcards() {
		return match.Declared.MediaType
	}
	return match.Requested.MediaType
}

// Reports whether candidate should replace best. Only strict improvements win, so
// the earliest registered codec is kept on ties.
func (match Match[C]) beats(best Match[C]) bool {
	if match.Declared.Wildcards() != best.Declared.Wildcards() {
		return match.Declared.Wildcards() < best.Declared.Wildcards()
	}
	if match.Declared.Quality != best.Declared.Quality {
		return match.Declared.Quality > best.Declared.Quality
	}
	return false
}
