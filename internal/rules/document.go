package rules

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tailscale/hujson"
)

const schemaURL = "https://github.com/stacklok/data-sync/rules.schema.json"

//go:embed schema.json
var schemaJSON []byte

// documentSchema is compiled once; the embedded schema is static
var documentSchema = mustCompileSchema()

// ParseError reports a rule document that could not be used.
// The whole document is skipped when this error is returned.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse rule document %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// document is the on-disk shape of a rule file
type document struct {
	Files       []ruleEntry `json:"Files"`
	Directories []ruleEntry `json:"Directories"`
}

type ruleEntry struct {
	Path             string `json:"Path"`
	DestinationPath  string `json:"DestinationPath"`
	Description      string `json:"Description"`
	SyncDirection    string `json:"SyncDirection"`
	SyncType         string `json:"SyncType"`
	PeriodicityInSec *int64 `json:"PeriodicityInSec"`
}

func mustCompileSchema() *jsonschema.Schema {
	schema, err := compileSchema()
	if err != nil {
		panic(fmt.Sprintf("invalid embedded rule schema: %v", err))
	}
	return schema
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
}

// ParseDocument decodes one rule document. Comments and trailing commas are
// accepted. On any error no rules are returned.
func ParseDocument(name string, data []byte) ([]SyncRule, error) {
	standard, err := hujson.Standardize(data)
	if err != nil {
		return nil, &ParseError{File: name, Err: err}
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(standard))
	if err != nil {
		return nil, &ParseError{File: name, Err: err}
	}
	if err := documentSchema.Validate(instance); err != nil {
		return nil, &ParseError{File: name, Err: err}
	}

	var doc document
	if err := json.Unmarshal(standard, &doc); err != nil {
		return nil, &ParseError{File: name, Err: err}
	}

	parsed := make([]SyncRule, 0, len(doc.Files)+len(doc.Directories))
	for _, entries := range [][]ruleEntry{doc.Files, doc.Directories} {
		for i, entry := range entries {
			rule, err := entry.toRule(name)
			if err != nil {
				return nil, &ParseError{File: name, Err: fmt.Errorf("entry[%d] (%s): %w", i, entry.Path, err)}
			}
			parsed = append(parsed, rule)
		}
	}

	return parsed, nil
}

func (e ruleEntry) toRule(source string) (SyncRule, error) {
	direction, err := ParseDirection(e.SyncDirection)
	if err != nil {
		return SyncRule{}, err
	}
	syncType, err := ParseSyncType(e.SyncType)
	if err != nil {
		return SyncRule{}, err
	}

	rule := SyncRule{
		Path:            e.Path,
		DestinationPath: e.DestinationPath,
		Description:     e.Description,
		Direction:       direction,
		Type:            syncType,
		Source:          source,
	}

	if syncType == SyncTypePeriodic {
		if e.PeriodicityInSec == nil {
			slog.Warn("Periodic rule has no PeriodicityInSec, it will not be scheduled",
				"path", e.Path,
				"file", source)
		} else {
			rule.Periodicity = time.Duration(*e.PeriodicityInSec) * time.Second
		}
	}

	return rule, nil
}
