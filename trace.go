package lexdfa

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Trace the construction to "w", one line per sealed state.
func Trace(w io.Writer) Option {
	return func(b *builder) error {
		b.log = zap.New(zapcore.NewCore(traceEncoder(), zapcore.AddSync(w), zap.DebugLevel))
		return nil
	}
}

func traceEncoder() zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()
	config.TimeKey = ""
	config.CallerKey = ""
	return zapcore.NewConsoleEncoder(config)
}
