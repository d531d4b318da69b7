package negotiation

import (
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
)

// Request carries the raw negotiation inputs of one exchange.
type Request struct {
	// Accept is the raw Accept header value.
	Accept string
	// ContentType is the raw Content-Type header value.
	ContentType string
	// ForceAccept, when set, replaces Accept with a single range of quality 1.
	ForceAccept mimetype.MediaType
	// ForceContentType, when set, replaces ContentType.
	ForceContentType mimetype.MediaType
}

/*
Session holds the producer and consumer resolved for one exchange. Sessions are
created per exchange, never shared, and need no synchronization. Both sides are
resolved when the session is created; either may be absent.
*/
type Session[P any, C any] struct {
	accept      []mimetype.Range
	contentType mimetype.MediaType

	producer    Match[P]
	hasProducer bool
	consumer    Match[C]
	hasConsumer bool
}

// NewSession resolves both sides of an exchange. A nil registry resolves to no
// match on its side.
func NewSession[P any, C any](
	producers *Registry[P], consumers *Registry[C], request Request,
) *Session[P, C] {
	session := &Session[P, C]{}

	if !request.ForceAccept.IsZero() {
		session.accept = []mimetype.Range{
			mimetype.NewRange(request.ForceAccept, mimetype.DefaultQuality),
		}
	} else {
		session.accept = mimetype.ParseRanges(request.Accept)
	}

	if !request.ForceContentType.IsZero() {
		session.contentType = request.ForceContentType
	} else if parsed, err := mimetype.Parse(request.ContentType); err == nil {
		session.contentType = parsed
	}

	if producers != nil {
		session.producer, session.hasProducer = producers.SelectProducer(session.accept)
	}
	if consumers != nil {
		session.consumer, session.hasConsumer = consumers.SelectConsumerType(
			session.contentType,
		)
	}

	return session
}

// AcceptRanges returns the ranges the producer was selected from, in header order.
func (session *Session[P, C]) AcceptRanges() []mimetype.Range {
	ranges := make([]mimetype.Range, len(session.accept))
	copy(ranges, session.accept)
	return ranges
}

// ContentType returns the content type the consumer was selected for. UNKNOWN when
// none was given or it could not be parsed.
func (session *Session[P, C]) ContentType() mimetype.MediaType {
	return session.contentType
}

// Producer returns the resolved producer.
func (session *Session[P, C]) Producer() (Match[P], bool) {
	return session.producer, session.hasProducer
}

// Consumer returns the resolved consumer.
func (session *Session[P, C]) Consumer() (Match[C], bool) {
	return session.consumer, session.hasConsumer
}

// Produce invokes use with the resolved producer. It reports false without calling
// use when no producer was resolved.
func (session *Session[P, C]) Produce(use func(Match[P]) error) (bool, error) {
	if !session.hasProducer {
		return false, nil
	}
	return true, use(session.producer)
}

// Consume invokes use with the resolved consumer. It reports false without calling
// use when no consumer was resolved.
func (session *Session[P, C]) Consume(use func(Match[C]) error) (bool, error) {
	if !session.hasConsumer {
		return false, nil
	}
	return true, use(session.consumer)
}

// String summarizes the outcome for logs, e.g. "produce=json consume=<none>".
func (session *Session[P, C]) String() string {
	builder := strings.Builder{}
	builder.WriteString("produce=")
	if session.hasProducer {
		builder.WriteString(session.producer.Descriptor.name)
	} else {
		builder.WriteString("<none>")
	}
	builder.WriteString(" consume=")
	if session.hasConsumer {
		builder.WriteString(session.consumer.Descriptor.name)
	} else {
		builder.WriteString("<none>")
	}
	return builder.String()
}
