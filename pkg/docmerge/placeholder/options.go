package placeholder

import "log/slog"

// DefaultRawSubstrings are the field-name fragments that mark a value as a
// trusted HTML fragment. Existing templates depend on these.
var DefaultRawSubstrings = []string{"_image_tag", "_options"}

// Option configures an Engine.
type Option func(*Engine)

// WithTrustedFields registers field names whose values are inserted without
// escaping. Matching is exact. The naming convention in DefaultRawSubstrings
// keeps working alongside this set.
func WithTrustedFields(names ...string) Option {
	return func(e *Engine) {
		for _, n := range names {
			e.trusted[n] = struct{}{}
		}
	}
}

// WithRawSubstrings replaces the naming-convention fragments that mark a
// field as raw. Empty fragments are ignored.
//
// Default: DefaultRawSubstrings
func WithRawSubstrings(subs ...string) Option {
	return func(e *Engine) {
		e.rawSubstrings = e.rawSubstrings[:0]
		for _, s := range subs {
			if s != "" {
				e.rawSubstrings = append(e.rawSubstrings, s)
			}
		}
	}
}

// WithLogger sets a logger that receives a debug entry for each marker that
// resolves to nothing. Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}
