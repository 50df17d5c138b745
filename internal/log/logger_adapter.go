package log

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Config configures the process-wide logger.
type Config struct {
	Level   string       `mapstructure:"level" yaml:"level"`
	Pattern string       `mapstructure:"pattern" yaml:"pattern"`
	Time    string       `mapstructure:"time" yaml:"time"`
	File    *FileOptions `mapstructure:"file" yaml:"file,omitempty"`
}

// DefaultConfig matches what a bare `nearcap start` with no config
// file produces: info level, console only.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Pattern: "%time [%level] %caller: %msg%n",
		Time:    "2006-01-02 15:04:05",
	}
}

type logrusAdapter struct {
	entry *logrus.Entry
}

func initByConfig(cfg Config) error {
	l := logrus.New()
	l.SetReportCaller(true)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	writer := NewMultiWriter().Add(os.Stdout)
	if cfg.File != nil && cfg.File.Filename != "" {
		writer.AddFileAppender(*cfg.File)
	}
	l.SetOutput(writer)

	// Colorized key=value output on an interactive terminal; the
	// %time/%level/%caller pattern formatter otherwise, so redirected
	// output and log files stay grep-friendly.
	if isatty.IsTerminal(os.Stdout.Fd()) {
		l.SetFormatter(&prefixed.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: cfg.Time,
		})
	} else {
		l.SetFormatter(&formatter{pattern: cfg.Pattern, time: cfg.Time})
	}

	logger = &logrusAdapter{entry: logrus.NewEntry(l)}
	return nil
}

func (l *logrusAdapter) Print(args ...interface{})                 { l.entry.Print(args...) }
func (l *logrusAdapter) Printf(format string, args ...interface{}) { l.entry.Printf(format, args...) }

func (l *logrusAdapter) Trace(args ...interface{})                 { l.entry.Trace(args...) }
func (l *logrusAdapter) Tracef(format string, args ...interface{}) { l.entry.Tracef(format, args...) }

func (l *logrusAdapter) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *logrusAdapter) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

func (l *logrusAdapter) Info(args ...interface{})                 { l.entry.Info(args...) }
func (l *logrusAdapter) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

func (l *logrusAdapter) Warn(args ...interface{})                 { l.entry.Warn(args...) }
func (l *logrusAdapter) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

func (l *logrusAdapter) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *logrusAdapter) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *logrusAdapter) WithField(field string, value interface{}) Logger {
	return &logrusAdapter{entry: l.entry.WithField(field, value)}
}
func (l *logrusAdapter) WithFields(fields map[string]interface{}) Logger {
	return &logrusAdapter{entry: l.entry.WithFields(fields)}
}
func (l *logrusAdapter) WithError(err error) Logger {
	return &logrusAdapter{entry: l.entry.WithError(err)}
}

func (l *logrusAdapter) IsDebugEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}
