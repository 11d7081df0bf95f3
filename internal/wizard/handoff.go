package wizard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sirupsen/logrus"
)

// ErrCorruptHandoff is returned when a handoff string cannot be decoded.
var ErrCorruptHandoff = errors.New("wizard: corrupt stage handoff")

const bundleSchemaDoc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["nodes", "edges"],
  "properties": {
    "nodes": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id", "kind", "position"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "kind": {"enum": ["company", "product", "persona", "content", "generic"]},
          "position": {
            "type": "object",
            "required": ["x", "y"],
            "properties": {"x": {"type": "number"}, "y": {"type": "number"}}
          }
        }
      }
    },
    "edges": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id", "source", "target"],
        "properties": {
          "id": {"type": "string"},
          "source": {"type": "string"},
          "target": {"type": "string"}
        }
      }
    },
    "selectedOrganizationId": {"type": "string"},
    "companyInfo": {"type": ["object", "null"]},
    "personas": {"$ref": "#/$defs/records"},
    "products": {"$ref": "#/$defs/records"},
    "content": {"$ref": "#/$defs/records"},
    "selectedMedia": {"type": "array", "items": {"type": "string"}},
    "selectedSpecs": {
      "type": "array",
      "items": {"type": "object", "required": ["channel", "id"]}
    },
    "rehydrated": {"type": ["object", "null"]},
    "submittedAt": {"type": "string"},
    "correlationId": {"type": "string"},
    "generatedAssetUrl": {"type": "string"}
  },
  "$defs": {
    "records": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["canvasId"],
        "properties": {"canvasId": {"type": "string"}}
      }
    }
  }
}`

var bundleSchema = jsonschema.MustCompileString("stage-bundle.schema.json", bundleSchemaDoc)

// EncodeHandoff serializes b into a percent-encoded JSON string that can be
// embedded in a URL.
func EncodeHandoff(b Bundle) (string, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("failed to encode bundle: %w", err)
	}
	return strings.ReplaceAll(url.QueryEscape(string(raw)), "+", "%20"), nil
}

// ParseHandoff decodes a handoff string and reports why it is unusable.
func ParseHandoff(s string) (Bundle, error) {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrCorruptHandoff, err)
	}
	raw := bytes.TrimSpace([]byte(decoded))
	if len(raw) < 2 || raw[0] != '{' || raw[len(raw)-1] != '}' {
		return Bundle{}, fmt.Errorf("%w: not a JSON object", ErrCorruptHandoff)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrCorruptHandoff, err)
	}
	if err := bundleSchema.Validate(doc); err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrCorruptHandoff, err)
	}

	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrCorruptHandoff, err)
	}
	if b.Nodes == nil {
		b.Nodes = EmptyBundle().Nodes
	}
	if b.Edges == nil {
		b.Edges = EmptyBundle().Edges
	}
	return b, nil
}

// DecodeHandoff is ParseHandoff for page loads: any failure is logged and
// yields an empty bundle.
func DecodeHandoff(s string) Bundle {
	b, err := ParseHandoff(s)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"operation": "decode_handoff",
			"length":    len(s),
			"error":     err,
		}).Warn("Discarding unreadable stage handoff")
		return EmptyBundle()
	}
	return b
}

// roundTrip checks that b survives encoding and decoding unchanged.
func roundTrip(b Bundle) error {
	if b.Nodes == nil {
		b.Nodes = EmptyBundle().Nodes
	}
	if b.Edges == nil {
		b.Edges = EmptyBundle().Edges
	}
	encoded, err := EncodeHandoff(b)
	if err != nil {
		return err
	}
	back, err := ParseHandoff(encoded)
	if err != nil {
		return err
	}
	want, err := json.Marshal(b)
	if err != nil {
		return err
	}
	got, err := json.Marshal(back)
	if err != nil {
		return err
	}
	if !bytes.Equal(want, got) {
		return fmt.Errorf("%w: bundle changed across encoding", ErrCorruptHandoff)
	}
	return nil
}
