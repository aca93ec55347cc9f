package source

import (
	"context"

	docerr "github.com/randalmurphal/docmerge/pkg/docmerge/errors"
)

// ChainSource tries sources in order and moves on only when a source does
// not have the template. Any other failure stops the chain.
type ChainSource struct {
	sources []Source
}

// NewChainSource creates a ChainSource.
func NewChainSource(sources ...Source) *ChainSource {
	return &ChainSource{sources: sources}
}

// Name implements Source.
func (c *ChainSource) Name() string { return "chain" }

// Load implements Source.
func (c *ChainSource) Load(ctx context.Context, key string) (string, error) {
	for _, src := range c.sources {
		text, err := src.Load(ctx, key)
		if err == nil {
			return text, nil
		}
		if docerr.Categorize(err) != docerr.CategoryNotFound {
			return "", err
		}
	}
	return "", docerr.TemplateNotFound(key)
}
