package prom

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// rangeResponseSchema describes the envelope shape the client accepts.
// data is optional because error envelopes omit it; the client enforces
// its presence on success.
const rangeResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["status"],
  "properties": {
    "status": {"type": "string"},
    "errorType": {"type": "string"},
    "error": {"type": "string"},
    "warnings": {"type": "array", "items": {"type": "string"}},
    "data": {
      "type": "object",
      "required": ["resultType", "result"],
      "properties": {
        "resultType": {"type": "string"},
        "result": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["metric", "values"],
            "properties": {
              "metric": {"type": "object", "additionalProperties": {"type": "string"}},
              "values": {
                "type": "array",
                "items": {
                  "type": "array",
                  "minItems": 2,
                  "maxItems": 2,
                  "items": [{"type": "number"}, {"type": "string"}]
                }
              }
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func responseSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(rangeResponseSchema))
	})
	return schema, schemaErr
}

// validateShape checks body against the envelope schema. It returns a
// descriptive error listing every violation.
func validateShape(body []byte) error {
	s, err := responseSchema()
	if err != nil {
		return fmt.Errorf("compile response schema: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}
	return fmt.Errorf("response does not match range query shape: %s", strings.Join(errs, "; "))
}
