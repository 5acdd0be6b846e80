package vkcube

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

const logFlags = log.Ldate | log.Ltime | log.Lshortfile

// Logger groups the info, warning and error streams.
type Logger struct {
	Info  *log.Logger
	Warn  *log.Logger
	Error *log.Logger

	dir   string
	files []*os.File
}

var stderrLogger = newLogger(os.Stderr, os.Stderr, os.Stderr)

func newLogger(info, warn, errw io.Writer) *Logger {
	return &Logger{
		Info:  log.New(info, "INFO: ", logFlags),
		Warn:  log.New(warn, "WARNING: ", logFlags),
		Error: log.New(errw, "ERROR: ", logFlags),
	}
}

// NewLogger appends to info_log.txt, warn_log.txt and error_log.txt in dir,
// or writes to stderr when dir is empty.
func NewLogger(dir string) (*Logger, error) {
	if dir == "" {
		return newLogger(os.Stderr, os.Stderr, os.Stderr), nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	var files []*os.File
	open := func(name string) (*os.File, error) {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		return f, nil
	}
	info, err := open("info_log.txt")
	if err != nil {
		return nil, err
	}
	warn, err := open("warn_log.txt")
	if err != nil {
		closeAll(files)
		return nil, err
	}
	errf, err := open("error_log.txt")
	if err != nil {
		closeAll(files)
		return nil, err
	}
	l := newLogger(info, warn, errf)
	l.dir = dir
	l.files = files
	return l, nil
}

// NopLogger discards everything.
func NopLogger() *Logger {
	return newLogger(io.Discard, io.Discard, io.Discard)
}

// Close closes the log files.
func (l *Logger) Close() error {
	closeAll(l.files)
	l.files = nil
	return nil
}

// Fatal runs finalizers, writes err to the fatal log and exits.
func (l *Logger) Fatal(err error, finalizers ...func()) {
	if err == nil {
		return
	}
	for _, fn := range finalizers {
		fn()
	}
	out, ferr := l.fatalWriter()
	if ferr != nil {
		log.Fatal(err)
	}
	log.New(out, "FATAL: ", logFlags).Fatal(fmt.Sprintf("%+v", err))
}

// fatalWriter is stderr alone for a stderr logger. A logger with a directory
// also records the error in error_log.txt and fatal_log.txt.
func (l *Logger) fatalWriter() (io.Writer, error) {
	if l.dir == "" {
		return os.Stderr, nil
	}
	file, err := os.OpenFile(filepath.Join(l.dir, "fatal_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return nil, err
	}
	return io.MultiWriter(file, l.Error.Writer(), os.Stderr), nil
}

func closeAll(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}
