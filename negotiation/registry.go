package negotiation

import (
	"sync"
	"sync/atomic"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

var (
	// ErrRegistryFrozen is returned when registering into a registry that has already
	// been used for selection or was frozen explicitly.
	ErrRegistryFrozen = xerrors.New("negotiation: registry is frozen")
	// ErrNoMediaTypes is returned when a codec declares no media types.
	ErrNoMediaTypes = xerrors.New("negotiation: codec declares no media types")
	// ErrForeignDescriptor is returned when setting a fallback that was registered
	// with another registry.
	ErrForeignDescriptor = xerrors.New("negotiation: descriptor belongs to another registry")
)

// Descriptor describes one registered codec. Descriptors are immutable.
type Descriptor[C any] struct {
	index      int
	name       string
	mediaTypes []mimetype.Range
	codec      C
	owner      any
}

// Index is the registration order of the codec, starting at 0.
func (descriptor *Descriptor[C]) Index() int {
	return descriptor.index
}

// Name is the human readable name given at registration.
func (descriptor *Descriptor[C]) Name() string {
	return descriptor.name
}

// Codec returns the registered codec.
func (descriptor *Descriptor[C]) Codec() C {
	return descriptor.codec
}

// MediaTypes returns a copy of the declared media types in declaration order. The
// Quality of each entry is its intrinsic quality.
func (descriptor *Descriptor[C]) MediaTypes() []mimetype.Range {
	mediaTypes := make([]mimetype.Range, len(descriptor.mediaTypes))
	copy(mediaTypes, descriptor.mediaTypes)
	return mediaTypes
}

func (descriptor *Descriptor[C]) String() string {
	return descriptor.name + " [" + mimetype.FormatRanges(descriptor.mediaTypes) + "]"
}

// Option configures a Registry.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for registration and fallback events.
func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// Registry is an ordered collection of codec descriptors. See the package
// documentation for the selection rules.
type Registry[C any] struct {
	name   string
	logger *zap.Logger

	// mu guards registration. Selection never takes it: descriptors is not written
	// once frozen is set.
	mu          sync.Mutex
	frozen      atomic.Bool
	descriptors []*Descriptor[C]
	fallback    *Descriptor[C]
}

// NewRegistry returns an empty registry. name is used in log output only.
func NewRegistry[C any](name string, opts ...Option) *Registry[C] {
	config := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&config)
	}
	return &Registry[C]{
		name:   name,
		logger: config.logger.With(zap.String("registry", name)),
	}
}

// Name returns the name the registry was created with.
func (registry *Registry[C]) Name() string {
	return registry.name
}

// Register adds a codec declaring media types in header grammar, e.g.
// "application/json;q=0.9". Declarations are parsed strictly: a malformed declaration
// is a programming error and is returned rather than skipped.
func (registry *Registry[C]) Register(
	name string, codec C, declared ...string,
) (*Descriptor[C], error) {
	mediaTypes := make([]mimetype.Range, 0, len(declared))
	for _, value := range declared {
		mediaRange, err := mimetype.ParseRange(value)
		if err != nil {
			return nil, xerrors.Errorf("error registering codec %q: %w", name, err)
		}
		mediaTypes = append(mediaTypes, mediaRange)
	}
	return registry.RegisterRanges(name, codec, mediaTypes...)
}

// RegisterRanges adds a codec declaring already parsed media types.
func (registry *Registry[C]) RegisterRanges(
	name string, codec C, declared ...mimetype.Range,
) (*Descriptor[C], error) {
	if len(declared) == 0 {
		return nil, xerrors.Errorf("error registering codec %q: %w", name, ErrNoMediaTypes)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.frozen.Load() {
		return nil, xerrors.Errorf("error registering codec %q: %w", name, ErrRegistryFrozen)
	}

	mediaTypes := make([]mimetype.Range, len(declared))
	for i, mediaRange := range declared {
		mediaRange.Position = i
		mediaTypes[i] = mediaRange
	}

	descriptor := &Descriptor[C]{
		index:      len(registry.descriptors),
		name:       name,
		mediaTypes: mediaTypes,
		codec:      codec,
		owner:      registry,
	}
	registry.descriptors = append(registry.descriptors, descriptor)

	registry.logger.Debug(
		"codec registered",
		zap.String("codec", name),
		zap.Int("index", descriptor.index),
		zap.String("media_types", mimetype.FormatRanges(mediaTypes)),
	)

	return descriptor, nil
}

// SetFallback sets the codec returned when nothing else matches. Pass nil to clear
// it.
func (registry *Registry[C]) SetFallback(descriptor *Descriptor[C]) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.frozen.Load() {
		return ErrRegistryFrozen
	}
	if descriptor != nil && descriptor.owner != registry {
		return ErrForeignDescriptor
	}

	registry.fallback = descriptor
	return nil
}

// Fallback returns the fallback codec, if any.
func (registry *Registry[C]) Fallback() (*Descriptor[C], bool) {
	registry.Freeze()
	return registry.fallback, registry.fallback != nil
}

// Freeze ends registration. Calling it more than once is harmless.
func (registry *Registry[C]) Freeze() {
	if registry.frozen.Load() {
		return
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.frozen.Store(true)
}

// Frozen reports whether registration has ended.
func (registry *Registry[C]) Frozen() bool {
	return registry.frozen.Load()
}

// Descriptors returns the registered codecs in registration order.
func (registry *Registry[C]) Descriptors() []*Descriptor[C] {
	registry.Freeze()
	descriptors := make([]*Descriptor[C], len(registry.descriptors))
	copy(descriptors, registry.descriptors)
	return descriptors
}

// Registered returns the codecs registered so far without ending registration.
func (registry *Registry[C]) Registered() []*Descriptor[C] {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	descriptors := make([]*Descriptor[C], len(registry.descriptors))
	copy(descriptors, registry.descriptors)
	return descriptors
}

// Len returns the number of registered codecs.
func (registry *Registry[C]) Len() int {
	registry.Freeze()
	return len(registry.descriptors)
}

// SelectProducer picks the codec for a list of acceptable ranges. An empty list is
// treated as "*/*".
func (registry *Registry[C]) SelectProducer(ranges []mimetype.Range) (Match[C], bool) {
	registry.Freeze()

	if len(ranges) == 0 {
		ranges = []mimetype.Range{mimetype.NewRange(mimetype.ANY, mimetype.DefaultQuality)}
	}

	for _, requested := range mimetype.SortRanges(ranges) {
		if !requested.Acceptable() {
			continue
		}
		if match, ok := registry.bestMatch(requested, producerMatches); ok {
			return match, true
		}
	}

	return registry.fallbackMatch()
}

// SelectProducerHeader parses an Accept header value and selects a producer.
func (registry *Registry[C]) SelectProducerHeader(accept string) (Match[C], bool) {
	return registry.SelectProducer(mimetype.ParseRanges(accept))
}

// ForceProducer selects a producer for exactly one media type, bypassing any header.
func (registry *Registry[C]) ForceProducer(mediaType mimetype.MediaType) (Match[C], bool) {
	return registry.SelectProducer(
		[]mimetype.Range{mimetype.NewRange(mediaType, mimetype.DefaultQuality)},
	)
}

// SelectConsumer parses a Content-Type header value and selects a consumer. Blank
// or malformed values are unspecified and resolve to the fallback.
func (registry *Registry[C]) SelectConsumer(contentType string) (Match[C], bool) {
	mediaType, err := mimetype.Parse(contentType)
	if err != nil {
		mediaType = mimetype.UNKNOWN
	}
	return registry.SelectConsumerType(mediaType)
}

// SelectConsumerType selects a consumer for an already parsed content type.
// UNKNOWN resolves to the fallback.
func (registry *Registry[C]) SelectConsumerType(
	mediaType mimetype.MediaType,
) (Match[C], bool) {
	registry.Freeze()

	if mediaType.IsZero() {
		return registry.fallbackMatch()
	}

	return registry.bestMatch(
		mimetype.NewRange(mediaType, mimetype.DefaultQuality), consumerMatches,
	)
}

// A producer matches when the wildcard-aware components are equal and every
// parameter the client asked for is declared by the codec.
func producerMatches(declared mimetype.MediaType, requested mimetype.MediaType) bool {
	return requested.Matches(declared) && declared.Satisfies(requested)
}

// A consumer matches when the wildcard-aware components are equal and every
// parameter the codec declares is present on the content type.
func consumerMatches(declared mimetype.MediaType, requested mimetype.MediaType) bool {
	return requested.Matches(declared) && requested.Satisfies(declared)
}

type matcher func(declared mimetype.MediaType, requested mimetype.MediaType) bool

func (registry *Registry[C]) bestMatch(
	requested mimetype.Range, matches matcher,
) (best Match[C], found bool) {
	for _, descriptor := range registry.descriptors {
		for _, declared := range descriptor.mediaTypes {
			if !declared.Acceptable() || !matches(declared.MediaType, requested.MediaType) {
				continue
			}

			candidate := Match[C]{
				Descriptor: descriptor,
				Declared:   declared,
				Requested:  requested,
			}
			if !found || candidate.beats(best) {
				best = candidate
				found = true
			}
		}
	}
	return best, found
}

func (registry *Registry[C]) fallbackMatch() (Match[C], bool) {
	if registry.fallback == nil {
		return Match[C]{}, false
	}

	registry.logger.Debug("no codec matched, using fallback",
		zap.String("codec", registry.fallback.name),
	)

	return Match[C]{
		Descriptor: registry.fallback,
		Declared:   registry.fallback.mediaTypes[0],
		Fallback:   true,
	}, true
}
