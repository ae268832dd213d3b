package spec

import "github.com/xeipuuv/gojsonschema"

// specSchema is the JSON Schema for version 1 spec blobs. Kept inline
// rather than embedded so the decoder has no file dependencies.
const specSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "compd completion spec",
  "$ref": "#/definitions/node",
  "definitions": {
    "node": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "version": {"type": "integer"},
        "name": {"type": "string", "minLength": 1},
        "description": {"type": "string"},
        "subcommands": {
          "type": "array",
          "items": {"$ref": "#/definitions/node"}
        },
        "options": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["names"],
            "properties": {
              "names": {
                "type": "array",
                "items": {"type": "string", "minLength": 1},
                "minItems": 1
              },
              "description": {"type": "string"},
              "takes_value": {"type": "boolean"},
              "values": {"type": "array", "items": {"type": "string"}}
            },
            "additionalProperties": false
          }
        },
        "args": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "description": {"type": "string"},
              "suggestions": {"type": "array", "items": {"type": "string"}},
              "generator": {"type": "string"},
              "template": {"type": "string", "enum": ["filepaths", "folders"]}
            },
            "additionalProperties": false
          }
        }
      },
      "additionalProperties": false
    }
  }
}`

// schema is compiled once and reused by every decode.
var schema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(specSchema))
	if err != nil {
		panic("spec: embedded schema is invalid: " + err.Error())
	}
	return s
}()
