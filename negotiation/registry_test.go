package negotiation_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"sync"
	"testing"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/negotiation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

// Codec stand-in: the registry only cares about names and media types.
type fakeCodec string

func newRegistry(test *testing.T, declarations map[string][]string, order ...string) *negotiation.Registry[fakeCodec] {
	registry := negotiation.NewRegistry[fakeCodec]("test")
	for _, name := range order {
		_, err := registry.Register(name, fakeCodec(name), declarations[name]...)
		require.NoError(test, err)
	}
	return registry
}

func selectedName(match negotiation.Match[fakeCodec], ok bool) string {
	if !ok {
		return "<none>"
	}
	return string(match.Codec())
}

func TestHighestQualityRangeWins(test *testing.T) {
	registry := newRegistry(test, map[string][]string{
		"json":      {"application/json"},
		"text-json": {"text/json", "application/json;q=0.9"},
	}, "json", "text-json")

	match, ok := registry.SelectProducerHeader("text/json;q=1.0, application/json;q=0.5")

	assert.Equal(test, "text-json", selectedName(match, ok))
	assert.Equal(test, "text/json", match.MediaType().String())
	assert.False(test, match.Fallback)
}

func TestIntrinsicQualityBreaksTies(test *testing.T) {
	registry := newRegistry(test, map[string][]string{
		"text-json": {"text/json", "application/json;q=0.9"},
		"json":      {"application/json"},
	}, "text-json", "json")

	assert.Equal(test, "json", selectedName(registry.SelectProducerHeader("application/json")))
}

func TestHigherRangeDoesNotFallThrough(test *testing.T) {
	registry := newRegistry(test, map[string][]string{
		"xml":  {"application/xml"},
		"json": {"application/json"},
	}, "xml", "json")

	// application/json matched first; the lower quality xml range is never consulted.
	match, ok := registry.SelectProducerHeader("application/xml;q=0.2, application/json")
	assert.Equal(test, "json", selectedName(match, ok))
	assert.Equal(test, "application/json", match.Requested.Essence())
}

func TestNaNQualityRangeSkipped(test *testing.T) {
	registry := newRegistry(test, map[string][]string{
		"text": {"text/plain"},
		"json": {"application/json"},
	}, "text", "json")

	match, ok := registry.SelectProducerHeader(
		"application/json;q=0.5, text/plain;q=NaN, text/plain;q=0.9",
	)
	assert.Equal(test, "text", selectedName(match, ok))
	assert.Equal(test, 0.9, match.Requested.Quality)
}

func TestEqualQualityKeepsHeaderOrder(test *testing.T) {
	registry := newRegistry(test, map[string][]string{
		"xml":  {"application/xml"},
		"json": {"application/json"},
	}, "json", "xml")

	assert.Equal(test, "xml", selectedName(registry.SelectProducerHeader(
		"application/xml, application/json",
	)))
}

func TestWildcardRangeUsesRegistrationOrder(test *testing.T) {
	registry := newRegistry(test, map[string][]string{
		"yaml": {"application/yaml"},
		"json": {"application/json"},
		"text": {"text/plain"},
	}, "yaml", "json", "text")

	assert.Equal(test, "yaml", selectedName(registry.SelectProducerHeader("*/*")))
	assert.Equal(test, "yaml", selectedName(registry.SelectProducerHeader("application/*")))
	assert.Equal(test, "text", selectedName(registry.SelectProducerHeader("text/*")))
}

func TestSpecificityTieBreak(test *testing.T) {
	registry := newRegistry(test, map[string][]string{
		"any":       {"*/*"},
		"text-any":  {"text/*"},
		"text-html": {"text/html"},
	}, "any", "text-any", "text-html")

	match, ok := registry.SelectProducerHeader("text/html")
	assert.Equal(test, "text-html", selectedName(match, ok))

	match, ok = registry.SelectProducerHeader("text/csv")
	assert.Equal(test, "text-any", selectedName(match, ok))
	// The concrete requested type is advertised instead of the codec wildcard.
	assert.Equal(test, "text/csv", match.MediaType().String())

	assert.Equal(test, "any", selectedName(registry.SelectProducerHeader("image/png")))
}

func TestRangeParamsMustBeDeclared(test *testing.T) {
	registry := newRegistry(test, map[string][]string{
		"plain":   {"text/html"},
		"level-1": {"text/html;level=1"},
	}, "plain", "level-1")

	assert.Equal(test, "level-1", selectedName(registry.SelectProducerHeader("text/html;level=1")))
	assert.Equal(test, "plain", selectedName(registry.SelectProducerHeader("text/html")))
	assert.Equal(test, "<none>", selectedName(registry.SelectProducerHeader("text/html;level=2")))
}

func TestZeroQualityExcluded(test *testing.T) {
	registry := newRegistry(test, map[string][]string{
		"json": {"application/json"},
		"yaml": {"application/yaml"},
	}, "json", "yaml")

	assert.Equal(test, "yaml", selectedName(registry.SelectProducerHeader(
		"application/json;q=0, application/yaml;q=0.1",
	)))
	assert.Equal(test, "<none>", selectedName(registry.SelectProducerHeader(
		"application/json;q=0",
	)))
}

func TestDisabledDeclarationNeverMatches(test *testing.T) {
	registry := newRegistry(test, map[string][]string{
		"json": {"application/json;q=0", "text/json"},
	}, "json")

	assert.Equal(test, "<none>", selectedName(registry.SelectProducerHeader("application/json")))
}

func TestNoMatchWithoutFallback(test *testing.T) {
	assert := assert.New(test)

	registry := newRegistry(test, map[string][]string{
		"json": {"application/json"},
	}, "json")

	match, ok := registry.SelectProducerHeader("image/png, text/html;q=0.4")
	assert.False(ok)
	assert.Nil(match.Descriptor)
}

func TestNoMatchUsesFallback(test *testing.T) {
	assert := assert.New(test)

	registry := negotiation.NewRegistry[fakeCodec]("test")
	_, err := registry.Register("json", "json", "application/json")
	require.NoError(test, err)
	text, err := registry.Register("text", "text", "text/plain")
	require.NoError(test, err)
	require.NoError(test, registry.SetFallback(text))

	match, ok := registry.SelectProducerHeader("image/png")
	assert.True(ok)
	assert.True(match.Fallback)
	assert.Equal("text", string(match.Codec()))
	assert.Equal("text/plain", match.MediaType().String())
}

func TestEmptyAcceptMeansAnything(test *testing.T) {
	registry := newRegistry(test, map[string][]string{
		"json": {"application/json"},
		"text": {"text/plain"},
	}, "json", "text")

	assert.Equal(test, "json", selectedName(registry.SelectProducerHeader("")))
	assert.Equal(test, "json", selectedName(registry.SelectProducer(nil)))
}

func TestMalformedAcceptTokensSkipped(test *testing.T) {
	registry := newRegistry(test, map[string][]string{
		"json": {"application/json"},
		"text": {"text/plain"},
	}, "json", "text")

	assert.Equal(test, "text", selectedName(registry.SelectProducerHeader(
		"bogus;;, text/plain;q=0.5, application/json;q=nope",
	)))
}

func TestForceProducer(test *testing.T) {
	registry := newRegistry(test, map[string][]string{
		"json": {"application/json"},
		"text": {"text/plain"},
	}, "json", "text")

	assert.Equal(test, "text", selectedName(registry.ForceProducer(mimetype.TEXT)))
}

func TestSelectConsumer(test *testing.T) {
	registry := newRegistry(test, map[string][]string{
		"json":      {"application/json"},
		"utf8-text": {"text/plain;charset=utf-8"},
		"text":      {"text/*"},
	}, "json", "utf8-text", "text")

	assert.Equal(test, "json", selectedName(registry.SelectConsumer("application/json; charset=utf-8")))
	assert.Equal(test, "utf8-text", selectedName(registry.SelectConsumer("text/plain; charset=UTF-8")))
	assert.Equal(test, "text", selectedName(registry.SelectConsumer("text/plain")))
	assert.Equal(test, "text", selectedName(registry.SelectConsumer("text/csv")))
	assert.Equal(test, "<none>", selectedName(registry.SelectConsumer("image/png")))
	// Unspecified with no fallback.
	assert.Equal(test, "<none>", selectedName(registry.SelectConsumer("")))
}

func TestSelectConsumerUnspecifiedUsesFallback(test *testing.T) {
	assert := assert.New(test)

	registry := negotiation.NewRegistry[fakeCodec]("consumers")
	json, err := registry.Register("json", "json", "application/json")
	require.NoError(test, err)
	require.NoError(test, registry.SetFallback(json))

	for _, contentType := range []string{"", "   ", "not-a-type"} {
		match, ok := registry.SelectConsumer(contentType)
		assert.True(ok, contentType)
		assert.True(match.Fallback, contentType)
	}

	// A specified type that nothing consumes is not rescued by the fallback.
	_, ok := registry.SelectConsumer("image/png")
	assert.False(ok)
}

func TestRegistrationErrors(test *testing.T) {
	assert := assert.New(test)

	registry := negotiation.NewRegistry[fakeCodec]("test")

	_, err := registry.Register("none", "none")
	assert.True(xerrors.Is(err, negotiation.ErrNoMediaTypes))

	_, err = registry.Register("bad", "bad", "not a media type")
	assert.True(xerrors.Is(err, mimetype.ErrMalformed))

	other := negotiation.NewRegistry[fakeCodec]("other")
	foreign, err := other.Register("json", "json", "application/json")
	require.NoError(test, err)
	assert.Equal(negotiation.ErrForeignDescriptor, registry.SetFallback(foreign))

	_, ok := registry.SelectProducerHeader("*/*")
	assert.False(ok)
	assert.True(registry.Frozen())

	_, err = registry.Register("late", "late", "application/json")
	assert.True(xerrors.Is(err, negotiation.ErrRegistryFrozen))
	assert.Equal(negotiation.ErrRegistryFrozen, registry.SetFallback(nil))
}

func TestDescriptors(test *testing.T) {
	assert := assert.New(test)

	registry := newRegistry(test, map[string][]string{
		"json":      {"application/json"},
		"text-json": {"text/json", "application/json;q=0.9"},
	}, "json", "text-json")

	descriptors := registry.Descriptors()
	assert.Len(descriptors, 2)
	assert.Equal(2, registry.Len())
	assert.Equal(1, descriptors[1].Index())
	assert.Equal("text-json", descriptors[1].Name())
	assert.Equal("text-json [text/json, application/json;q=0.9]", descriptors[1].String())
	assert.Equal(0.9, descriptors[1].MediaTypes()[1].Quality)
}

func TestConcurrentSelection(test *testing.T) {
	registry := newRegistry(test, map[string][]string{
		"json":      {"application/json"},
		"text-json": {"text/json", "application/json;q=0.9"},
		"text":      {"text/*"},
	}, "json", "text-json", "text")
	registry.Freeze()

	wg := sync.WaitGroup{}
	for worker := 0; worker < 16; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				match, ok := registry.SelectProducerHeader("text/json;q=1.0, application/json;q=0.5")
				if !ok || match.Codec() != "text-json" {
					test.Errorf("unexpected selection %v", match.Codec())
					return
				}
			}
		}()
	}
	wg.Wait()
}
