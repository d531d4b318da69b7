package encoding

import (
	"io"

	"gopkg.in/yaml.v2"
)

// Handles encoding to / decoding from yaml.
type yamlEncoder struct{}

func (encoder *yamlEncoder) Encode(
	engine ContentEngine, writer io.Writer, content interface{},
) error {
	yamlEncoder := yaml.NewEncoder(writer)
	if err := yamlEncoder.Encode(content); err != nil {
		return err
	}
	// Close flushes the document.
	return yamlEncoder.Close()
}

func (encoder *yamlEncoder) Decode(
	engine ContentEngine, reader io.Reader, contentReceiver interface{},
) error {
	return yaml.NewDecoder(reader).Decode(contentReceiver)
}
