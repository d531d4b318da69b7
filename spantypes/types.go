/*
Package spantypes holds value types with a fixed representation in every content
format the encoding engine speaks.
*/
package spantypes

import (
	"encoding/hex"

	"golang.org/x/xerrors"
)

/*
BinData holds a raw binary blob on a struct that must survive a trip through any
codec. JSON and YAML write it as a hex string, BSON as a generic (0x0) Binary
primitive and CBOR as a byte string.
*/
type BinData []byte

// ParseBinData reads a hex string written by BinData.Hex.
func ParseBinData(encoded string) (BinData, error) {
	decoded, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, xerrors.Errorf("could not decode hex: %w", err)
	}
	return decoded, nil
}

// Hex returns the lowercase hex form of the data.
func (data BinData) Hex() string {
	return hex.EncodeToString(data)
}

func (data BinData) String() string {
	return data.Hex()
}

// MarshalYAML writes the data as a hex string.
func (data BinData) MarshalYAML() (interface{}, error) {
	return data.Hex(), nil
}

// UnmarshalYAML reads a hex string.
func (data *BinData) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var encoded string
	if err := unmarshal(&encoded); err != nil {
		return xerrors.Errorf("BinData must be a hex string: %w", err)
	}

	decoded, err := ParseBinData(encoded)
	if err != nil {
		return err
	}
	*data = decoded
	return nil
}
