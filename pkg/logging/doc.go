// Package logging configures operational logging and the exchange log.
//
// Operational logging wraps log/slog. Components accept a *slog.Logger in
// their constructor or via an option and fall back to Nop:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//	logger.Info("server started", "addr", addr)
//
// The exchange log is separate: an ExchangeObserver receives every finished
// exchange from the dispatcher and writes a human-readable record of the
// request, the reply, and any failure to stdout, a file, or a file in a
// chosen character encoding:
//
//	obs, err := logging.NewFileObserverWithCharset("exchanges.log", "iso-8859-1")
//	dispatcher := setup.NewDispatcher(regs, setup.WithObserver(obs))
//	defer obs.Close()
package logging
