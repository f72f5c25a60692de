// Package logging provides structured logging for midenclaim runs.
//
// Logs are JSON lines written through log/slog, either to stderr or to
// midenclaim.log inside a log directory with size-based rotation. While the
// terminal dashboard owns stdout, the log file is the only durable record of
// what each account worker did.
//
// # Context Propagation
//
//	runLogger := logger.WithRun(runID)
//	acctLogger := runLogger.WithAccount(3)
//	acctLogger.Info("claim succeeded", "delay", "7m")
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"claim succeeded","run_id":"...","account_id":3,"delay":"7m"}
//
// # Runtime Level Changes
//
// The level is held in a [slog.LevelVar] shared by every child logger, so
// [Logger.SetLevel] takes effect immediately across the process. The run
// command uses this to apply logging.level edits from a watched config file.
//
// # Reading Logs Back
//
// [ReadEntries] and [FilterEntries] parse a log file for the logs command.
//
// # Testing
//
// Use [NopLogger] to discard output.
package logging
