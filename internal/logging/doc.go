// Package logging provides structured logging for uigen.
//
// Logging wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Automatic context field injection (user.id, project.id, request.id)
//   - Secret redaction by field name and value pattern
//   - File output, since the header TUI owns the terminal
//
// # Usage
//
//	cfg, err := logging.FromSettings(appCfg.Logging)
//	if err != nil {
//	    return err
//	}
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	ctx = logging.WithUserID(ctx, "u-42")
//	logger.Info(ctx, "projects fetched", zap.Int("count", n))
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertNoSecrets(t)
//
// Logger is safe for concurrent use.
package logging
