package operation

import (
	"io"
	"log/slog"

	"github.com/relux-works/opline/expr"
	"github.com/relux-works/opline/parsing"
	"github.com/relux-works/opline/value"
)

type config struct {
	prefix        Address
	strict        bool
	resolver      *expr.Resolver
	resolveValues bool
	resolveNames  bool
	stage         value.Stage
	separators    string
	maxDepth      int
	valueDepth    int
	logger        *slog.Logger
}

// Option configures how commands are parsed and how their values are
// typed.
type Option func(*config)

func newConfig(opts []Option) *config {
	cfg := &config{
		strict:     true,
		stage:      value.StageLeaves,
		separators: parsing.DefaultSeparators,
		maxDepth:   parsing.DefaultMaxDepth,
		valueDepth: value.DefaultMaxDepth,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.resolver == nil && (cfg.resolveValues || cfg.resolveNames) {
		cfg.resolver = expr.New(expr.Env())
	}
	return cfg
}

// WithPrefix makes addresses relative to prefix, the way a console's
// current node is.
func WithPrefix(prefix Address) Option {
	return func(c *config) {
		c.prefix = prefix.Clone()
	}
}

// WithStrict controls end-of-input handling. Strict parses (the default)
// fail on unclosed lists, quotes and headers and on missing tokens; lenient
// parses accept a truncated command, as completion needs.
func WithStrict(strict bool) Option {
	return func(c *config) {
		c.strict = strict
	}
}

// WithResolver sets the resolver used for ${...} expressions. Without one,
// resolution reads only the environment.
func WithResolver(r *expr.Resolver) Option {
	return func(c *config) {
		c.resolver = r
	}
}

// WithResolveValues resolves expressions in property values when they are
// typed.
func WithResolveValues(on bool) Option {
	return func(c *config) {
		c.resolveValues = on
	}
}

// WithResolveNames resolves expressions in node types, node names, the
// operation name and property names while parsing.
func WithResolveNames(on bool) Option {
	return func(c *config) {
		c.resolveNames = on
	}
}

// WithStage selects when value expressions are resolved relative to
// typing. It defaults to value.StageLeaves.
func WithStage(s value.Stage) Option {
	return func(c *config) {
		c.stage = s
	}
}

// WithSeparators sets the characters that divide a line into commands.
func WithSeparators(seps string) Option {
	return func(c *config) {
		if seps != "" {
			c.separators = seps
		}
	}
}

// WithMaxDepth bounds grammar nesting and value nesting.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDepth = n
			c.valueDepth = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// valueOptions returns the options for typing one property value.
func (c *config) valueOptions() []value.Option {
	opts := []value.Option{value.WithMaxDepth(c.valueDepth)}
	if c.resolveValues && c.resolver != nil {
		opts = append(opts, value.WithResolver(c.resolver.Resolve, c.stage))
	}
	return opts
}
