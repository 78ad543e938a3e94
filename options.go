package lexdfa

import "go.uber.org/zap"

// An Option to modify the behaviour of the builder.
type Option func(b *builder) error

// Logger sets the logger the builder reports progress to. A nil logger
// discards everything.
func Logger(log *zap.Logger) Option {
	return func(b *builder) error {
		if log == nil {
			log = zap.NewNop()
		}
		b.log = log
		return nil
	}
}

// Names the patterns, for diagnostics and the resulting DFA.
//
// Compile names patterns automatically.
func Names(names ...string) Option {
	return func(b *builder) error {
		b.names = names
		return nil
	}
}
