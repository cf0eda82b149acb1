package lsp

import (
	"encoding/json"
	"fmt"

	"cib/internal/engine"
)

// decodeInto converts a decoded interface{} result into a typed value by
// round-tripping through JSON. Language servers return loosely shaped
// data; this keeps the tolerant decoding in one place.
func decodeInto(v interface{}, into interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, into)
}

// parseSymbolInformation decodes a workspace/symbol result
func parseSymbolInformation(result interface{}) ([]engine.SymbolInformation, error) {
	if result == nil {
		return nil, nil
	}

	var symbols []engine.SymbolInformation
	if err := decodeInto(result, &symbols); err != nil {
		return nil, fmt.Errorf("expected symbol array: %w", err)
	}
	return symbols, nil
}

// docSymbolNode accepts both documentSymbol result shapes: hierarchical
// DocumentSymbol and flat SymbolInformation
type docSymbolNode struct {
	Name           string           `json:"name"`
	Kind           int              `json:"kind"`
	Range          *engine.Range    `json:"range"`
	SelectionRange *engine.Range    `json:"selectionRange"`
	Location       *engine.Location `json:"location"`
	Children       []docSymbolNode  `json:"children"`
}

// parseDocumentSymbols decodes a textDocument/documentSymbol result
func parseDocumentSymbols(result interface{}) ([]engine.DocumentSymbol, error) {
	if result == nil {
		return nil, nil
	}

	var nodes []docSymbolNode
	if err := decodeInto(result, &nodes); err != nil {
		return nil, fmt.Errorf("expected document symbol array: %w", err)
	}

	out := make([]engine.DocumentSymbol, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.toDocumentSymbol())
	}
	return out, nil
}

func (n docSymbolNode) toDocumentSymbol() engine.DocumentSymbol {
	sym := engine.DocumentSymbol{
		Name: n.Name,
		Kind: n.Kind,
	}

	switch {
	case n.Range != nil:
		sym.Range = *n.Range
		if n.SelectionRange != nil {
			sym.SelectionRange = *n.SelectionRange
		} else {
			sym.SelectionRange = *n.Range
		}
	case n.Location != nil:
		// Flat SymbolInformation form.
		sym.Range = n.Location.Range
		sym.SelectionRange = n.Location.Range
	}

	for _, child := range n.Children {
		sym.Children = append(sym.Children, child.toDocumentSymbol())
	}
	return sym
}

// parseLocations decodes a references result
func parseLocations(result interface{}) ([]engine.Location, error) {
	if result == nil {
		return nil, nil
	}

	var locations []engine.Location
	if err := decodeInto(result, &locations); err != nil {
		return nil, fmt.Errorf("expected location array: %w", err)
	}
	return locations, nil
}

// parseHover decodes a hover result. Servers send contents as a plain
// string, a MarkupContent object, a MarkedString object, or an array of
// those; all collapse to the first non-empty text.
func parseHover(result interface{}) *engine.Hover {
	if result == nil {
		return nil
	}

	m, ok := result.(map[string]interface{})
	if !ok {
		return nil
	}

	text := hoverText(m["contents"])
	if text == "" {
		return nil
	}
	return &engine.Hover{Contents: text}
}

func hoverText(contents interface{}) string {
	switch v := contents.(type) {
	case string:
		return v
	case map[string]interface{}:
		if value, ok := v["value"].(string); ok {
			return value
		}
	case []interface{}:
		for _, item := range v {
			if text := hoverText(item); text != "" {
				return text
			}
		}
	}
	return ""
}
