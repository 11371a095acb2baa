package log

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

// logWriter implements an io.Writer that outputs to both standard output and
// the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	_, _ = os.Stdout.Write(p)
	if LogRotator != nil {
		_, _ = LogRotator.Write(p)
	}
	return len(p), nil
}

var (
	// backendLog is the logging backend used to create all subsystem loggers.
	// The backend must not be used before the log rotator has been initialized,
	// or data races and/or nil pointer dereferences will occur.
	backendLog = btclog.NewBackend(logWriter{})

	// LogRotator is one of the logging outputs. It should be closed on
	// application shutdown.
	LogRotator *rotator.Rotator

	Log  = backendLog.Logger("TBED")
	Node = backendLog.Logger("NODE")
	Sign = backendLog.Logger("SIGN")
	Srv  = backendLog.Logger("SRVR")
)

var subsystemLoggers = map[string]btclog.Logger{
	"TBED": Log,
	"NODE": Node,
	"SIGN": Sign,
	"SRVR": Srv,
}

// InitLogRotator initializes the logging rotater to write logs to logFile and
// create roll files in the same directory. It must be called before the
// package-global log rotater variables are used.
func InitLogRotator(logFile string) error {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %v", err)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %v", err)
	}
	LogRotator = r
	return nil
}

// SetLevels sets the log level for every subsystem logger. Unknown levels are
// rejected so a typo in the config does not silently mute logging.
func SetLevels(level string) error {
	if level == "" {
		return nil
	}
	lvl, ok := btclog.LevelFromString(level)
	if !ok {
		return fmt.Errorf("invalid log level %q", level)
	}
	for _, l := range subsystemLoggers {
		l.SetLevel(lvl)
	}
	return nil
}

// Close flushes and closes the rotator if one was initialized.
func Close() {
	if LogRotator != nil {
		_ = LogRotator.Close()
	}
}

// Setup initializes the rotator at logFile and applies level to every
// subsystem.
func Setup(logFile, level string) error {
	if err := InitLogRotator(logFile); err != nil {
		return err
	}
	return SetLevels(level)
}
