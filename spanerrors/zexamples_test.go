package spanerrors_test

import (
	"fmt"
	"strings"

	"github.com/illuscio-dev/spanmarshal-go/encoding"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/spanerrors"
)

// EXAMPLES ##########

// Lets convert an error returned from SpanEngine.Decode into a RequestValidationError
// as if we are an endpoint handler decoding a request.
func ExampleSpanErrorType_New() {
	// Set up the engine doing our decoding
	engine, _ := encoding.NewContentEngine(false)

	// This data cannot be decoded to a map via json
	data := "YOU'LL NEVER DECODE ME, BATMAN! HAHAHAHAHAHA"
	receiver := make(map[string]string)
	reader := strings.NewReader(data)

	err := engine.Decode(mimetype.JSON, &receiver, reader)
	if err != nil {
		// Make a new RequestValidationError
		spanErr := spanerrors.RequestValidationError.New(
			"error reading request content",
			map[string]interface{}{"contentType": mimetype.JSON.String()},
			err,
		)

		// Print the span error
		fmt.Println(spanErr.Error())
		fmt.Println(spanErr.HttpCode())
	}

	// Output:
	// RequestValidationError (1003) - error reading request content
	// 400
}
