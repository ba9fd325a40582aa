// internal/reasoning/schema.go
package reasoning

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Validate checks a raw answer against the JSON Schema it was requested
// under. Failures wrap ErrSchemaMismatch with every violated constraint.
func Validate(schema string, document []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, errs)
	}

	return nil
}
