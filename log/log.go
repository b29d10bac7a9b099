// Package log provides leveled logging with explicit audit marking for
// messages that must survive for compliance review (issuance successes
// and failures).
package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jmhodges/clock"
)

// A Logger logs messages with explicit priority levels. It is
// implemented by a logging back-end as provided by NewStdoutLogger()
// or NewMock().
type Logger interface {
	Err(msg string)
	Errf(format string, a ...any)
	Warning(msg string)
	Warningf(format string, a ...any)
	Info(msg string)
	Infof(format string, a ...any)
	Debug(msg string)
	Debugf(format string, a ...any)
	AuditInfo(msg string)
	AuditInfof(format string, a ...any)
	AuditErr(msg string)
	AuditErrf(format string, a ...any)
}

// The tag used to identify audit-specific messages.
const auditTag = "[AUDIT]"

type level int

const (
	levelErr level = iota
	levelWarning
	levelInfo
	levelDebug
)

var levelName = map[level]string{
	levelErr:     "ERR",
	levelWarning: "WARNING",
	levelInfo:    "INFO",
	levelDebug:   "DEBUG",
}

// impl implements Logger on top of a writer.
type impl struct {
	w writer
}

type writer interface {
	logAtLevel(l level, msg string)
}

// stdoutWriter writes timestamped lines to an io.Writer, usually
// os.Stdout.
type stdoutWriter struct {
	prefix string
	out    io.Writer
	clk    clock.Clock
	mu     sync.Mutex
}

// NewStdoutLogger constructs a Logger that writes all messages to
// stdout, stamped with the time from clk.
func NewStdoutLogger(clk clock.Clock) Logger {
	shortHostname := "unknown"
	if host, err := os.Hostname(); err == nil {
		shortHostname = host
	}
	prefix := fmt.Sprintf("%s %s[%d]:", shortHostname, command(), os.Getpid())
	return &impl{&stdoutWriter{prefix: prefix, out: os.Stdout, clk: clk}}
}

func command() string {
	if len(os.Args) == 0 {
		return "unknown"
	}
	return os.Args[0]
}

func (w *stdoutWriter) logAtLevel(l level, msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "%s %s %s %s\n",
		w.clk.Now().UTC().Format("2006-01-02T15:04:05.000000+00:00"),
		w.prefix,
		levelName[l],
		msg)
}

func (log *impl) Err(msg string) {
	log.w.logAtLevel(levelErr, msg)
}

func (log *impl) Errf(format string, a ...any) {
	log.Err(fmt.Sprintf(format, a...))
}

func (log *impl) Warning(msg string) {
	log.w.logAtLevel(levelWarning, msg)
}

func (log *impl) Warningf(format string, a ...any) {
	log.Warning(fmt.Sprintf(format, a...))
}

func (log *impl) Info(msg string) {
	log.w.logAtLevel(levelInfo, msg)
}

func (log *impl) Infof(format string, a ...any) {
	log.Info(fmt.Sprintf(format, a...))
}

func (log *impl) Debug(msg string) {
	log.w.logAtLevel(levelDebug, msg)
}

func (log *impl) Debugf(format string, a ...any) {
	log.Debug(fmt.Sprintf(format, a...))
}

// AuditInfo sends an INFO-severity message that is audit-tagged.
func (log *impl) AuditInfo(msg string) {
	log.w.logAtLevel(levelInfo, auditTag+" "+msg)
}

func (log *impl) AuditInfof(format string, a ...any) {
	log.AuditInfo(fmt.Sprintf(format, a...))
}

// AuditErr sends an ERR-severity message that is audit-tagged.
func (log *impl) AuditErr(msg string) {
	log.w.logAtLevel(levelErr, auditTag+" "+msg)
}

func (log *impl) AuditErrf(format string, a ...any) {
	log.AuditErr(fmt.Sprintf(format, a...))
}
