package bridge

import (
	"context"

	"cib/internal/engine"
)

// FindReferencesResult is the answer to a find-references operation:
// the resolved symbol and every usage location, declaration excluded.
type FindReferencesResult struct {
	Symbol          Symbol            `json:"symbol"`
	References      []engine.Location `json:"references"`
	TotalReferences int               `json:"totalReferences"`
}

// FindReferences resolves a symbol by name and aggregates its usages
func (s *Service) FindReferences(ctx context.Context, symbolName string) (*FindReferencesResult, error) {
	sym, err := s.Resolve(ctx, symbolName)
	if err != nil {
		return nil, err
	}

	locations, err := s.engine.References(ctx, sym.URI, sym.Position, false)
	if err != nil {
		return nil, err
	}

	references := s.withoutDeclaration(locations, sym)
	return &FindReferencesResult{
		Symbol:          *sym,
		References:      references,
		TotalReferences: len(references),
	}, nil
}

// ReferencesAt aggregates usages for an already-known position
func (s *Service) ReferencesAt(ctx context.Context, uri string, pos engine.Position, includeDeclaration bool) ([]engine.Location, error) {
	locations, err := s.engine.References(ctx, uri, pos, includeDeclaration)
	if err != nil {
		return nil, err
	}
	if locations == nil {
		locations = []engine.Location{}
	}
	return locations, nil
}

// withoutDeclaration drops the declaration location when a server
// returns it despite being asked not to
func (s *Service) withoutDeclaration(locations []engine.Location, sym *Symbol) []engine.Location {
	out := make([]engine.Location, 0, len(locations))
	for _, loc := range locations {
		if loc.URI == sym.URI && loc.Range.Start == sym.Position {
			continue
		}
		out = append(out, loc)
	}
	return out
}
