package ai

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const messagesResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["role", "model", "usage", "content"],
  "properties": {
    "role": {"type": "string"},
    "model": {"type": "string"},
    "stop_reason": {"type": ["string", "null"]},
    "usage": {
      "type": "object",
      "required": ["input_tokens", "output_tokens"],
      "properties": {
        "input_tokens": {"type": "integer", "minimum": 0},
        "output_tokens": {"type": "integer", "minimum": 0}
      }
    },
    "content": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["text"],
        "properties": {
          "type": {"type": "string"},
          "text": {"type": "string"}
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

func validateShape(body []byte) error {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(messagesResponseSchema))
	})
	if schemaErr != nil {
		return fmt.Errorf("compile response schema: %w", schemaErr)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("response does not match messages shape: %s", strings.Join(msgs, "; "))
}
