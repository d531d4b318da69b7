package beans_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"bytes"
	"testing"

	"github.com/illuscio-dev/spanmarshal-go/beans"
	"github.com/illuscio-dev/spanmarshal-go/encoding"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func orderedProperties() *beans.Properties {
	properties := beans.NewProperties("wizard")
	properties.Set("zeta", "last letter")
	properties.Set("alpha", 1)
	properties.Set("mid", true)
	return properties
}

func createEngine(test *testing.T) *encoding.SpanEngine {
	engine, err := encoding.NewContentEngine(false)
	require.NoError(test, err)
	return engine
}

func TestPropertiesSetReplacesInPlace(test *testing.T) {
	assert := assert.New(test)

	properties := orderedProperties()
	properties.Set("zeta", "replaced")

	assert.Equal(3, properties.Len())
	assert.Equal([]string{"zeta", "alpha", "mid"}, properties.Names())

	value, ok := properties.Get("zeta")
	assert.True(ok)
	assert.Equal("replaced", value)
}

func TestPropertiesZeroValue(test *testing.T) {
	properties := &beans.Properties{}
	properties.Set("name", "Neville")

	assert.Equal(test, []string{"name"}, properties.Names())
}

func TestPropertiesJSONKeepsOrder(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	buffer := &bytes.Buffer{}
	require.NoError(test, engine.Encode(mimetype.JSON, orderedProperties(), buffer))
	assert.Equal(`{"zeta":"last letter","alpha":1,"mid":true}`, buffer.String())

	loaded := &beans.Properties{}
	require.NoError(test, engine.Decode(mimetype.JSON, loaded, buffer))

	// Decoded keys are sorted.
	assert.Equal([]string{"alpha", "mid", "zeta"}, loaded.Names())
	value, _ := loaded.Get("zeta")
	assert.Equal("last letter", value)
}

func TestPropertiesYAMLKeepsOrder(test *testing.T) {
	engine := createEngine(test)

	buffer := &bytes.Buffer{}
	require.NoError(test, engine.Encode(mimetype.YAML, orderedProperties(), buffer))
	assert.Equal(test, "zeta: last letter\nalpha: 1\nmid: true\n", buffer.String())
}

func TestPropertiesBSONKeepsOrder(test *testing.T) {
	assert := assert.New(test)
	engine := createEngine(test)

	buffer := &bytes.Buffer{}
	require.NoError(test, engine.Encode(mimetype.BSON, orderedProperties(), buffer))

	loaded := bson.D{}
	require.NoError(test, bson.Unmarshal(buffer.Bytes(), &loaded))

	keys := make([]string, len(loaded))
	for i, element := range loaded {
		keys[i] = element.Key
	}
	assert.Equal([]string{"zeta", "alpha", "mid"}, keys)
}

func TestPropertiesCBOR(test *testing.T) {
	engine := createEngine(test)

	buffer := &bytes.Buffer{}
	require.NoError(test, engine.Encode(mimetype.CBOR, orderedProperties(), buffer))

	loaded := map[string]interface{}{}
	require.NoError(test, engine.Decode(mimetype.CBOR, &loaded, buffer))
	assert.Equal(test, "last letter", loaded["zeta"])
	assert.Equal(test, true, loaded["mid"])
}
