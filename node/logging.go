package node

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"primework.dev/node/consensus"
)

// NewLogger builds a JSON zap logger at the given level (debug|info|warn|error)
// writing to w, or to stderr when w is nil.
func NewLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if w == nil {
		w = os.Stderr
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(lvl),
	)
	return zap.New(core, zap.AddCaller()), nil
}

// ZapDiagnostics reports certification diagnostics as warn entries carrying the error code.
func ZapDiagnostics(logger *zap.Logger) consensus.DiagnosticFunc {
	if logger == nil {
		return nil
	}
	return func(err error) {
		logger.Warn("chain certification diagnostic",
			zap.String("code", string(consensus.CodeOf(err))),
			zap.Error(err))
	}
}
