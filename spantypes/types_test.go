package spantypes

//revive:disable:import-shadowing reason: Disabled for assert := assert.New(), which is
// the preferred method of using multiple asserts in a test.

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v2"
)

func TestBinDataHex(test *testing.T) {
	assert := assert.New(test)

	data := BinData("owl")
	assert.Equal("6f776c", data.Hex())
	assert.Equal("6f776c", data.String())

	parsed, err := ParseBinData("6f776c")
	assert.NoError(err)
	assert.Equal(data, parsed)
}

func TestBinDataParseInvalid(test *testing.T) {
	_, err := ParseBinData("not hex")
	assert.EqualError(test, err, "could not decode hex: encoding/hex: invalid byte: U+006E 'n'")
}

type binHolder struct {
	Data BinData `yaml:"data"`
}

func TestBinDataYAMLRoundTrip(test *testing.T) {
	assert := assert.New(test)

	encoded, err := yaml.Marshal(binHolder{Data: BinData("owl")})
	if !assert.NoError(err) {
		test.FailNow()
	}
	assert.Equal("data: 6f776c\n", string(encoded))

	loaded := binHolder{}
	err = yaml.Unmarshal(encoded, &loaded)
	assert.NoError(err)
	assert.Equal(BinData("owl"), loaded.Data)
}

func TestBinDataYAMLNotString(test *testing.T) {
	loaded := binHolder{}
	err := yaml.Unmarshal([]byte("data: [1, 2]\n"), &loaded)
	assert.Error(test, err)
}

func TestBinDataYAMLBadHex(test *testing.T) {
	loaded := binHolder{}
	err := yaml.Unmarshal([]byte("data: zz\n"), &loaded)
	assert.Error(test, err)
}
