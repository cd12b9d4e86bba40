package appcore

import (
	"context"
	"io"

	"go.uber.org/zap"

	"microsim/internal/cmdutil"
	"microsim/internal/config"
	"microsim/internal/logging"
	"microsim/internal/telemetry"
)

// Ambient builds the logger and (opt-in) tracer for a tool. The returned
// stop flushes both and must be called before exit.
func Ambient(ctx context.Context, service string, env config.Env, level, format string, quiet bool, stderr io.Writer) (*zap.Logger, func(), error) {
	log, err := logging.New(stderr, level, format)
	if err != nil {
		return nil, nil, err
	}
	shutdown, err := telemetry.Setup(ctx, service, env.OTelEndpoint, env.OTelEnabled)
	if err != nil {
		cmdutil.Warnf(stderr, quiet, "tracing disabled: %v", err)
	}
	log = log.With(zap.String("service", service))
	stop := func() {
		_ = shutdown(context.Background())
		_ = log.Sync()
	}
	return log, stop, nil
}
