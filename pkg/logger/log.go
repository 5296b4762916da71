package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type LogStatus int

const (
	DEBUG LogStatus = iota
	INFO
	SUCCESS
	WARNING
	ERROR
	FATAL
)

const minStatus = INFO

func (e LogStatus) String() string {
	return []string{
		"DEBUG",
		"INFO",
		"SUCCESS",
		"WARNING",
		"ERROR",
		"FATAL",
	}[e]
}

func (e LogStatus) Color() *color.Color {
	return []*color.Color{
		color.New(color.FgWhite, color.Italic),
		color.New(color.FgWhite),
		color.New(color.FgHiGreen),
		color.New(color.FgYellow, color.Underline),
		color.New(color.FgHiRed, color.Bold),
		color.New(color.FgHiRed, color.Bold, color.Underline),
	}[e]
}

// Logger is a named log emitter. Components hold one via Get and
// emit leveled, printf-style messages through it.
type Logger interface {
	Emit(LogStatus, string, ...interface{})
}

type loggerImpl struct {
	name string
}

func (l *loggerImpl) Emit(status LogStatus, message string, interpolations ...interface{}) {
	Log.Emit(status, l.name, message, interpolations...)
}

type LoggerManager interface {
	GetLogger(string) Logger
	Emit(LogStatus, string, string, ...interface{})
	SetFileSink(string) error
	Close()
}

var Log LoggerManager = &loggerMgr{}

// loggerMgr fans each emission out to the colored console and, once
// SetFileSink has been called, to an append-only log file. The file
// line format mirrors the console minus color:
//
//	2024-01-02 15:04:05 - WARNING - [Pexels] download attempt 1 failed
type loggerMgr struct {
	mu     sync.Mutex
	offset int
	sink   *os.File
}

func (l *loggerMgr) GetLogger(name string) Logger {
	return &loggerImpl{name: name}
}

func (l *loggerMgr) SetFileSink(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file sink: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sink != nil {
		l.sink.Close()
	}
	l.sink = f

	return nil
}

func (l *loggerMgr) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sink != nil {
		l.sink.Close()
		l.sink = nil
	}
}

func (l *loggerMgr) Emit(status LogStatus, name string, message string, interpolations ...interface{}) {
	if status < minStatus {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.setNameOffset(len(name))
	padding := strings.Repeat(" ", l.offset-len(name))
	body := fmt.Sprintf(message, interpolations...)

	status.Color().Printf("[%s] %s(%s) %s", name, padding, status, body)

	if l.sink != nil {
		if !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		stamp := time.Now().Format("2006-01-02 15:04:05")
		fmt.Fprintf(l.sink, "%s - %s - [%s] %s", stamp, status, name, body)
	}
}

func (l *loggerMgr) setNameOffset(offset int) {
	if offset > l.offset {
		l.offset = offset
	}
}

func Get(name string) Logger {
	return Log.GetLogger(name)
}
