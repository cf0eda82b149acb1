// Package scip serves intelligence queries from a prebuilt SCIP index
// file, with no language server involved.
package scip

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"cib/internal/engine"
	"cib/internal/errors"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"
)

// Index is a loaded SCIP index with lookup tables built once at load
// time: definitions by symbol id, display names, and documents by path.
type Index struct {
	raw *scippb.Index

	docsByPath  map[string]*scippb.Document
	definitions map[string]engine.Location
	names       map[string]string
}

// LoadIndex reads and parses a SCIP index file
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.EngineUnavailable,
			fmt.Sprintf("cannot read SCIP index at %s", path), err)
	}

	var raw scippb.Index
	if err := proto.Unmarshal(data, &raw); err != nil {
		return nil, errors.New(errors.EngineUnavailable,
			fmt.Sprintf("cannot parse SCIP index at %s", path), err)
	}

	return buildIndex(&raw), nil
}

func buildIndex(raw *scippb.Index) *Index {
	idx := &Index{
		raw:         raw,
		docsByPath:  make(map[string]*scippb.Document, len(raw.Documents)),
		definitions: make(map[string]engine.Location),
		names:       make(map[string]string),
	}

	for _, doc := range raw.Documents {
		idx.docsByPath[doc.RelativePath] = doc

		for _, sym := range doc.Symbols {
			idx.names[sym.Symbol] = displayName(sym)
		}
		for _, occ := range doc.Occurrences {
			if occ.SymbolRoles&int32(scippb.SymbolRole_Definition) == 0 {
				continue
			}
			if _, seen := idx.definitions[occ.Symbol]; seen {
				continue
			}
			idx.definitions[occ.Symbol] = engine.Location{
				URI:   doc.RelativePath,
				Range: occurrenceRange(occ.Range),
			}
		}
	}

	return idx
}

// displayName prefers the indexer-provided display name and falls back
// to the last descriptor of the symbol string
func displayName(sym *scippb.SymbolInformation) string {
	if sym.DisplayName != "" {
		return sym.DisplayName
	}

	parsed, err := scippb.ParseSymbol(sym.Symbol)
	if err != nil || len(parsed.Descriptors) == 0 {
		return ""
	}
	return parsed.Descriptors[len(parsed.Descriptors)-1].Name
}

// occurrenceRange converts the compact SCIP range encoding. Three
// elements mean a single-line range, four a multi-line one.
func occurrenceRange(r []int32) engine.Range {
	if len(r) < 3 {
		return engine.Range{}
	}

	start := engine.Position{Line: uint32(r[0]), Character: uint32(r[1])}
	if len(r) == 3 {
		return engine.Range{
			Start: start,
			End:   engine.Position{Line: uint32(r[0]), Character: uint32(r[2])},
		}
	}
	return engine.Range{
		Start: start,
		End:   engine.Position{Line: uint32(r[2]), Character: uint32(r[3])},
	}
}

// containsPosition reports whether pos falls inside a compact SCIP range
func containsPosition(r []int32, pos engine.Position) bool {
	rng := occurrenceRange(r)
	if len(r) < 3 {
		return false
	}

	if pos.Line < rng.Start.Line || pos.Line > rng.End.Line {
		return false
	}
	if pos.Line == rng.Start.Line && pos.Character < rng.Start.Character {
		return false
	}
	if pos.Line == rng.End.Line && pos.Character > rng.End.Character {
		return false
	}
	return true
}

// document returns the indexed document for a relative path, tolerating
// slash differences between the index and the caller
func (idx *Index) document(relativePath string) *scippb.Document {
	if doc, ok := idx.docsByPath[relativePath]; ok {
		return doc
	}
	return idx.docsByPath[strings.ReplaceAll(relativePath, "\\", "/")]
}

// occurrenceAt returns the symbol occurrence covering pos, preferring
// the narrowest match when occurrences nest
func (idx *Index) occurrenceAt(relativePath string, pos engine.Position) *scippb.Occurrence {
	doc := idx.document(relativePath)
	if doc == nil {
		return nil
	}

	var best *scippb.Occurrence
	for _, occ := range doc.Occurrences {
		if occ.Symbol == "" || !containsPosition(occ.Range, pos) {
			continue
		}
		if best == nil || rangeSpan(occ.Range) < rangeSpan(best.Range) {
			best = occ
		}
	}
	return best
}

func rangeSpan(r []int32) int64 {
	rng := occurrenceRange(r)
	lines := int64(rng.End.Line) - int64(rng.Start.Line)
	return lines*100000 + int64(rng.End.Character) - int64(rng.Start.Character)
}

// occurrencesOf collects every occurrence of a symbol across the index
func (idx *Index) occurrencesOf(symbol string, includeDefinition bool) []engine.Location {
	var out []engine.Location
	for _, doc := range idx.raw.Documents {
		for _, occ := range doc.Occurrences {
			if occ.Symbol != symbol {
				continue
			}
			if !includeDefinition && occ.SymbolRoles&int32(scippb.SymbolRole_Definition) != 0 {
				continue
			}
			out = append(out, engine.Location{
				URI:   doc.RelativePath,
				Range: occurrenceRange(occ.Range),
			})
		}
	}
	return out
}

// symbolsNamed returns the symbol ids whose display name matches query,
// exact matches first
func (idx *Index) symbolsNamed(query string) []string {
	var exact, partial []string
	lower := strings.ToLower(query)
	for symbol, name := range idx.names {
		if name == query {
			exact = append(exact, symbol)
		} else if lower != "" && strings.Contains(strings.ToLower(name), lower) {
			partial = append(partial, symbol)
		}
	}
	sort.Strings(exact)
	sort.Strings(partial)
	return append(exact, partial...)
}

// documentation returns the indexed documentation for a symbol id
func (idx *Index) documentation(symbol string) string {
	for _, doc := range idx.raw.Documents {
		for _, sym := range doc.Symbols {
			if sym.Symbol == symbol {
				return strings.Join(sym.Documentation, "\n")
			}
		}
	}
	return ""
}
