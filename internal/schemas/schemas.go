// Package schemas loads the JSON Schemas that constrain model output per document type.
package schemas

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/tradedoc-extract/constants"
	"github.com/joseph-ayodele/tradedoc-extract/internal/common"
)

//go:embed config/*.json
var embedded embed.FS

// Schema is a loaded, compiled schema document.
type Schema struct {
	DocType constants.DocType
	Source  string          // "embedded" or the override file path
	Raw     json.RawMessage // compacted, embedded verbatim in prompts

	compiled *jsonschema.Schema
}

// Load returns the schema for docType. When dir is set and holds a file named
// after the type, it wins over the embedded copy.
func Load(docType constants.DocType, dir string) (*Schema, error) {
	name := docType.SchemaFile()
	source := "embedded"

	var raw []byte
	var err error
	if dir != "" {
		p := filepath.Join(dir, name)
		raw, err = os.ReadFile(p)
		switch {
		case err == nil:
			source = p
		case errors.Is(err, fs.ErrNotExist):
			raw = nil
		default:
			return nil, common.NewAppError("CONFIG_ERROR", "read schema "+p, errors.Join(common.ErrConfiguration, err))
		}
	}
	if raw == nil {
		raw, err = embedded.ReadFile("config/" + name)
		if err != nil {
			return nil, common.ConfigError(fmt.Sprintf("no schema for document type %q", docType))
		}
	}
	return parse(docType, source, raw)
}

func parse(docType constants.DocType, source string, raw []byte) (*Schema, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", "schema "+source+" is not valid JSON", errors.Join(common.ErrConfiguration, err))
	}

	compiler := jsonschema.NewCompiler()
	url := string(docType) + ".schema.json"
	if err := compiler.AddResource(url, bytes.NewReader(compact.Bytes())); err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", "add schema "+source, errors.Join(common.ErrConfiguration, err))
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", "compile schema "+source, errors.Join(common.ErrConfiguration, err))
	}

	return &Schema{
		DocType:  docType,
		Source:   source,
		Raw:      json.RawMessage(compact.Bytes()),
		compiled: compiled,
	}, nil
}

// Validate checks a decoded JSON document (maps, slices, float64...) against the schema.
func (s *Schema) Validate(doc any) error {
	if err := s.compiled.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
