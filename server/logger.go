package server

import (
	"fmt"

	"github.com/inconshreveable/log15"

	"github.com/skuchniy0511/ordkv/config"
)

// NewLogger returns the console logger for a service, filtered at the
// configured level.
func NewLogger(conf *config.Config, service string) (log15.Logger, error) {
	lvl, err := log15.LvlFromString(conf.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", conf.LogLevel, err)
	}
	logger := log15.New("service", service)
	logger.SetHandler(log15.LvlFilterHandler(lvl, log15.StdoutHandler))

	return logger, nil
}

// NewJournal returns the logger every processed item is written to, one
// logfmt line each. Without a log file the journal is discarded.
func NewJournal(conf *config.Config) (log15.Logger, error) {
	logFile := log15.New()
	if conf.LogFilePath == "" {
		logFile.SetHandler(log15.DiscardHandler())
		return logFile, nil
	}

	logfileHandler, err := log15.FileHandler(conf.LogFilePath, log15.LogfmtFormat())
	if err != nil {
		return nil, err
	}
	logFile.SetHandler(logfileHandler)

	return logFile, nil
}
