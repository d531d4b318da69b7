package negotiation_test

import (
	"testing"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/negotiation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func newSessionRegistries(test *testing.T) (
	*negotiation.Registry[fakeCodec], *negotiation.Registry[fakeCodec],
) {
	producers := newRegistry(test, map[string][]string{
		"json": {"application/json"},
		"yaml": {"application/yaml"},
	}, "json", "yaml")

	consumers := negotiation.NewRegistry[fakeCodec]("consumers")
	json, err := consumers.Register("json", "json", "application/json")
	require.NoError(test, err)
	_, err = consumers.Register("yaml", "yaml", "application/yaml")
	require.NoError(test, err)
	require.NoError(test, consumers.SetFallback(json))

	return producers, consumers
}

func TestSessionResolvesBothSides(test *testing.T) {
	assert := assert.New(test)
	producers, consumers := newSessionRegistries(test)

	session := negotiation.NewSession(producers, consumers, negotiation.Request{
		Accept:      "application/yaml, application/json;q=0.4",
		ContentType: "application/json; charset=utf-8",
	})

	producer, ok := session.Producer()
	assert.True(ok)
	assert.Equal(fakeCodec("yaml"), producer.Codec())

	consumer, ok := session.Consumer()
	assert.True(ok)
	assert.Equal(fakeCodec("json"), consumer.Codec())
	assert.False(consumer.Fallback)

	assert.Len(session.AcceptRanges(), 2)
	assert.Equal("application/json", session.ContentType().Essence())
	assert.Equal("produce=yaml consume=json", session.String())
}

func TestSessionOverrides(test *testing.T) {
	assert := assert.New(test)
	producers, consumers := newSessionRegistries(test)

	session := negotiation.NewSession(producers, consumers, negotiation.Request{
		Accept:           "application/json",
		ContentType:      "application/json",
		ForceAccept:      mimetype.YAML,
		ForceContentType: mimetype.YAML,
	})

	producer, _ := session.Producer()
	consumer, _ := session.Consumer()
	assert.Equal(fakeCodec("yaml"), producer.Codec())
	assert.Equal(fakeCodec("yaml"), consumer.Codec())
	assert.Equal("application/yaml", mimetype.FormatRanges(session.AcceptRanges()))
}

func TestSessionNoMatch(test *testing.T) {
	assert := assert.New(test)
	producers, consumers := newSessionRegistries(test)

	session := negotiation.NewSession(producers, consumers, negotiation.Request{
		Accept:      "image/png",
		ContentType: "image/png",
	})

	_, ok := session.Producer()
	assert.False(ok)
	_, ok = session.Consumer()
	assert.False(ok)
	assert.Equal("produce=<none> consume=<none>", session.String())

	called := false
	resolved, err := session.Produce(func(negotiation.Match[fakeCodec]) error {
		called = true
		return nil
	})
	assert.False(resolved)
	assert.NoError(err)
	assert.False(called)
}

func TestSessionUnspecifiedContentTypeUsesFallback(test *testing.T) {
	producers, consumers := newSessionRegistries(test)

	session := negotiation.NewSession(producers, consumers, negotiation.Request{})

	consumer, ok := session.Consumer()
	assert.True(test, ok)
	assert.True(test, consumer.Fallback)
	assert.True(test, session.ContentType().IsZero())
}

func TestSessionCallbacks(test *testing.T) {
	assert := assert.New(test)
	producers, consumers := newSessionRegistries(test)

	session := negotiation.NewSession(producers, consumers, negotiation.Request{
		Accept:      "application/json",
		ContentType: "application/yaml",
	})

	var produced, consumed fakeCodec
	resolved, err := session.Produce(func(match negotiation.Match[fakeCodec]) error {
		produced = match.Codec()
		return nil
	})
	assert.True(resolved)
	assert.NoError(err)

	callbackErr := xerrors.New("decode failed")
	resolved, err = session.Consume(func(match negotiation.Match[fakeCodec]) error {
		consumed = match.Codec()
		return callbackErr
	})
	assert.True(resolved)
	assert.Equal(callbackErr, err)

	assert.Equal(fakeCodec("json"), produced)
	assert.Equal(fakeCodec("yaml"), consumed)
}

func TestSessionNilRegistries(test *testing.T) {
	session := negotiation.NewSession[fakeCodec, fakeCodec](nil, nil, negotiation.Request{
		Accept: "*/*",
	})

	_, ok := session.Producer()
	assert.False(test, ok)
	_, ok = session.Consumer()
	assert.False(test, ok)
}
