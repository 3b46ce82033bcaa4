package contracts

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas
var schemaFS embed.FS

const ListingRecordV1 = "ListingRecord/1.0.0"

var schemaFiles = map[string]string{
	ListingRecordV1: "schemas/listing-record/v1.json",
}

var (
	compileOnce     sync.Once
	compiledSchemas map[string]*jsonschema.Schema
	compileErr      error
)

func compileAll() {
	compiledSchemas = make(map[string]*jsonschema.Schema, len(schemaFiles))
	for key, file := range schemaFiles {
		data, err := schemaFS.ReadFile(file)
		if err != nil {
			compileErr = fmt.Errorf("failed to read schema %s: %w", file, err)
			return
		}
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(file, bytes.NewReader(data)); err != nil {
			compileErr = fmt.Errorf("failed to add schema %s: %w", file, err)
			return
		}
		schema, err := compiler.Compile(file)
		if err != nil {
			compileErr = fmt.Errorf("failed to compile schema %s: %w", file, err)
			return
		}
		compiledSchemas[key] = schema
	}
}

func schemaFor(key string) (*jsonschema.Schema, error) {
	compileOnce.Do(compileAll)
	if compileErr != nil {
		return nil, compileErr
	}
	schema, ok := compiledSchemas[key]
	if !ok {
		return nil, fmt.Errorf("schema '%s' not found", key)
	}
	return schema, nil
}

// ListingRecordValidator проверяет запись от текстового сервиса до маппинга в Listing
type ListingRecordValidator struct {
	schema *jsonschema.Schema
}

func NewListingRecordValidator() (*ListingRecordValidator, error) {
	schema, err := schemaFor(ListingRecordV1)
	if err != nil {
		return nil, err
	}
	return &ListingRecordValidator{schema: schema}, nil
}

func (v *ListingRecordValidator) ValidateRecord(record map[string]interface{}) error {
	if err := v.schema.Validate(record); err != nil {
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}
	return nil
}
