package mimetype_test

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"net/http"
	"testing"

	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/stretchr/testify/assert"
)

func ParameterizeFromString(
	test *testing.T, testStrings []string, expected mimetype.MediaType,
) {
	for _, mediaTypeString := range testStrings {
		extracted := mimetype.FromString(mediaTypeString)
		assert.True(
			test,
			expected.Equal(extracted),
			"%q: expected %q, got %q", mediaTypeString, expected, extracted,
		)
	}
}

func ParameterizeFromHeader(
	test *testing.T, testStrings []string, expected mimetype.MediaType,
) {
	for _, mediaTypeString := range testStrings {
		req := http.Request{
			Header: make(http.Header),
		}
		req.Header.Set("Content-Type", mediaTypeString)
		extracted := mimetype.FromHeader(req.Header)
		assert.True(
			test,
			expected.Equal(extracted),
			"%q: expected %q, got %q", mediaTypeString, expected, extracted,
		)
	}
}

func runAliasTests(test *testing.T, name string, values []string, expected mimetype.MediaType) {
	test.Run(name+" From String", func(subTest *testing.T) {
		ParameterizeFromString(subTest, values, expected)
	})
	test.Run(name+" From Header", func(subTest *testing.T) {
		ParameterizeFromHeader(subTest, values, expected)
	})
}

func TestFromJson(test *testing.T) {
	runAliasTests(test, "JSON", []string{
		"json",
		"JSON",
		"x-json",
		"application/json",
		"application/JSON",
		"application/x-json",
		"application/X-JSON",
	}, mimetype.JSON)
}

func TestFromBson(test *testing.T) {
	runAliasTests(test, "BSON", []string{
		"bson",
		"BSON",
		"x-bson",
		"application/bson",
		"application/BSON",
		"application/x-bson",
		"application/X-BSON",
	}, mimetype.BSON)
}

func TestFromYaml(test *testing.T) {
	runAliasTests(test, "YAML", []string{
		"yaml",
		"YAML",
		"x-yaml",
		"application/yaml",
		"application/x-yaml",
	}, mimetype.YAML)
}

func TestFromCborAndProtobuf(test *testing.T) {
	runAliasTests(test, "CBOR", []string{"cbor", "application/cbor"}, mimetype.CBOR)
	runAliasTests(test, "PROTOBUF", []string{
		"protobuf",
		"x-protobuf",
		"application/protobuf",
		"application/x-protobuf",
	}, mimetype.PROTOBUF)
}

func TestFromText(test *testing.T) {
	runAliasTests(test, "TEXT", []string{
		"text",
		"TEXT",
		"text/plain",
		"TEXT/plain",
	}, mimetype.TEXT)
}

func TestFromUnknown(test *testing.T) {
	runAliasTests(test, "UNKNOWN", []string{"", "   ", "not a type", "csv"}, mimetype.UNKNOWN)
}

func TestFromStringOther(test *testing.T) {
	runAliasTests(
		test,
		"Other",
		[]string{"text/csv", "TEXT/CSV", "text/CSV"},
		mimetype.MustParse("text/csv"),
	)
}

func TestFromStringKeepsParams(test *testing.T) {
	assert := assert.New(test)

	extracted := mimetype.FromString("application/x-json; charset=UTF-8")

	assert.Equal("application/json", extracted.Essence())
	charset, ok := extracted.Param("charset")
	assert.True(ok)
	assert.Equal("UTF-8", charset)
}

func TestTextJsonIsNotAliased(test *testing.T) {
	assert.Equal(test, "text/json", mimetype.FromString("text/json").Essence())
}
