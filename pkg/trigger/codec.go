package trigger

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed record.schema.json
var recordSchemaJSON string

const recordSchemaURL = "schema://trigger-record.json"

var recordSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(recordSchemaURL, strings.NewReader(recordSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add record schema: %w", err)
	}
	return compiler.Compile(recordSchemaURL)
})

// Record is the persisted form of a Definition. Name and Pattern are read from
// lists written before symbols were stored and are never written.
type Record struct {
	Kind      string            `json:"kind,omitempty"`
	Name      string            `json:"name,omitempty"`
	Symbol    string            `json:"symbol,omitempty"`
	EndSymbol string            `json:"end_symbol,omitempty"`
	Pattern   string            `json:"pattern,omitempty"`
	Extras    map[string]string `json:"extras,omitempty"`
}

// Encode writes defs as an ordered JSON list of records.
func Encode(defs []Definition) ([]byte, error) {
	records := make([]Record, 0, len(defs))
	for _, d := range defs {
		if !d.Kind.Valid() {
			return nil, fmt.Errorf("encode trigger list: invalid kind %d", int(d.Kind))
		}
		rec := Record{
			Kind:   d.Kind.String(),
			Symbol: d.Symbol,
			Extras: maps.Clone(d.Extras),
		}
		if d.Kind == KindRangeSelection {
			rec.EndSymbol = d.End()
		}
		records = append(records, rec)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode trigger list: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode reads a persisted trigger list. It never fails: malformed records fall
// back to default symbols, unknown kinds and duplicates are dropped, and missing
// kinds are appended as disabled defaults. Empty input yields Defaults().
func Decode(data []byte, logger *slog.Logger) []Definition {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Defaults()
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		logger.Warn("trigger list is not a JSON array, using defaults", "error", err)
		return Defaults()
	}

	schema, err := recordSchema()
	if err != nil {
		logger.Error("trigger record schema unavailable", "error", err)
	}

	seen := make(map[Kind]bool, len(kindTable))
	defs := make([]Definition, 0, len(kindTable))
	for i, raw := range raws {
		rec, err := decodeRecord(raw, schema)
		if err != nil {
			logger.Warn("dropping malformed trigger record", "index", i, "error", err)
			continue
		}
		name := rec.Kind
		if name == "" {
			name = rec.Name
		}
		kind, ok := ParseKind(name)
		if !ok {
			logger.Warn("dropping unknown trigger kind", "index", i, "kind", name)
			continue
		}
		if seen[kind] {
			logger.Warn("dropping duplicate trigger kind", "index", i, "kind", kind.String())
			continue
		}
		seen[kind] = true
		defs = append(defs, fromRecord(kind, rec, logger))
	}

	for _, kind := range Kinds() {
		if !seen[kind] {
			logger.Info("adding missing trigger kind", "kind", kind.String())
			defs = append(defs, Default(kind).WithEnabled(false))
		}
	}
	return defs
}

func decodeRecord(raw json.RawMessage, schema *jsonschema.Schema) (Record, error) {
	if schema != nil {
		var instance any
		if err := json.Unmarshal(raw, &instance); err != nil {
			return Record{}, err
		}
		if err := schema.Validate(instance); err != nil {
			return Record{}, err
		}
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func fromRecord(kind Kind, rec Record, logger *slog.Logger) Definition {
	start, end := rec.Symbol, rec.EndSymbol
	if start == "" && rec.Pattern != "" {
		start, end = legacySymbols(kind, rec.Pattern)
	}

	var (
		d   Definition
		err error
	)
	switch {
	case start == "":
		err = fmt.Errorf("%w: no symbol for %s", ErrInvalidSymbol, kind)
	case kind == KindRangeSelection:
		if end == "" {
			end = start
		}
		d, err = NewRangeDefinition(start, end, false)
	default:
		d, err = NewDefinition(kind, start, false)
	}
	if err != nil {
		logger.Warn("falling back to default trigger symbol",
			"kind", kind.String(), "symbol", start, "pattern", rec.Pattern, "error", err)
		d = Default(kind).WithEnabled(false)
	}
	// Extras carry the enabled flag; a record without one stays disabled.
	return d.WithExtras(rec.Extras)
}

func legacySymbols(kind Kind, pattern string) (start, end string) {
	if kind == KindRangeSelection {
		if s, e, ok := RangeSymbols(pattern); ok {
			return s, e
		}
	}
	if s, ok := ExpressionToSymbol(pattern); ok {
		return s, ""
	}
	return "", ""
}
