// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package logger

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents the level to log messages at.
type Level int

const (
	// LogDebug represents debug messages.
	LogDebug Level = iota
	// LogInfo represents informational messages.
	LogInfo
	// LogWarning represents warnings.
	LogWarning
	// LogError represents errors.
	LogError
)

var (
	// LogLevelNames takes a config name and gives the real log level.
	LogLevelNames = map[string]Level{
		"debug":    LogDebug,
		"info":     LogInfo,
		"warn":     LogWarning,
		"warning":  LogWarning,
		"warnings": LogWarning,
		"error":    LogError,
		"errors":   LogError,
	}
	// LogLevelDisplayNames gives the display name to use for our log levels.
	LogLevelDisplayNames = map[Level]string{
		LogDebug:   "debug",
		LogInfo:    "info",
		LogWarning: "warn",
		LogError:   "error",
	}
)

// Manager is the main interface used to log debug/info/error messages.
// A nil *Manager discards everything, so components can be built without one.
type Manager struct {
	configMutex     sync.RWMutex
	loggers         []singleLogger
	stdoutWriteLock sync.Mutex // use one lock for both stdout and stderr
	fileWriteLock   sync.Mutex
}

// LoggingConfig represents the configuration of a single logger.
type LoggingConfig struct {
	Method        string
	MethodStdout  bool     `yaml:"-"`
	MethodStderr  bool     `yaml:"-"`
	MethodFile    bool     `yaml:"-"`
	Filename      string
	TypeString    string   `yaml:"type"`
	Types         []string `yaml:"-"`
	ExcludedTypes []string `yaml:"-"`
	LevelString   string   `yaml:"level"`
	Level         Level    `yaml:"-"`
}

// Postprocess fills in the derived fields of the config from the raw
// strings in the YAML file: the method list, the type filters and the level.
func (config *LoggingConfig) Postprocess() error {
	methods := make(map[string]bool)
	for _, method := range strings.Fields(config.Method) {
		methods[strings.ToLower(method)] = true
	}
	config.MethodStdout = methods["stdout"]
	config.MethodStderr = methods["stderr"]
	config.MethodFile = methods["file"]
	if config.MethodFile && config.Filename == "" {
		return fmt.Errorf("Logging configuration specifies 'file' method but 'filename' is empty")
	}

	level, exists := LogLevelNames[strings.ToLower(config.LevelString)]
	if !exists {
		return fmt.Errorf("Could not translate log level [%s]", config.LevelString)
	}
	config.Level = level

	if config.TypeString == "" {
		return fmt.Errorf("Logger has no types to log")
	}
	config.Types = nil
	config.ExcludedTypes = nil
	for _, typeStr := range strings.Fields(config.TypeString) {
		if typeStr == "-" {
			return fmt.Errorf("Encountered logging type '-' with no type to exclude")
		}
		if strings.HasPrefix(typeStr, "-") {
			config.ExcludedTypes = append(config.ExcludedTypes, typeStr[1:])
		} else {
			config.Types = append(config.Types, typeStr)
		}
	}
	if len(config.Types) == 0 {
		return fmt.Errorf("Logger has no types to log")
	}
	return nil
}

// NewManager returns a new log manager.
func NewManager(config []LoggingConfig) (*Manager, error) {
	var logger Manager

	if err := logger.ApplyConfig(config); err != nil {
		return nil, err
	}

	return &logger, nil
}

// ApplyConfig applies the given config to this logger (rehashes the config, in other words).
func (logger *Manager) ApplyConfig(config []LoggingConfig) error {
	logger.configMutex.Lock()
	defer logger.configMutex.Unlock()

	for _, logger := range logger.loggers {
		logger.Close()
	}

	logger.loggers = nil

	var lastErr error
	for _, logConfig := range config {
		typeMap := make(map[string]bool)
		for _, name := range logConfig.Types {
			typeMap[name] = true
		}
		excludedTypeMap := make(map[string]bool)
		for _, name := range logConfig.ExcludedTypes {
			excludedTypeMap[name] = true
		}

		sLogger := singleLogger{
			stdout: writerOrNil(logConfig.MethodStdout, os.Stdout),
			stderr: writerOrNil(logConfig.MethodStderr, os.Stderr),
			MethodFile: fileMethod{
				Enabled:  logConfig.MethodFile,
				Filename: logConfig.Filename,
			},
			Level:           logConfig.Level,
			Types:           typeMap,
			ExcludedTypes:   excludedTypeMap,
			stdoutWriteLock: &logger.stdoutWriteLock,
			fileWriteLock:   &logger.fileWriteLock,
		}
		if sLogger.MethodFile.Enabled {
			file, err := os.OpenFile(sLogger.MethodFile.Filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
			if err != nil {
				lastErr = fmt.Errorf("Could not open log file %s [%s]", sLogger.MethodFile.Filename, err.Error())
				sLogger.MethodFile.Enabled = false
			} else {
				sLogger.MethodFile.File = file
				sLogger.MethodFile.Writer = bufio.NewWriter(file)
			}
		}
		logger.loggers = append(logger.loggers, sLogger)
	}

	return lastErr
}

// NewWriterManager returns a manager that writes every message at or above
// `level` to w. It is mostly useful in tests.
func NewWriterManager(w io.Writer, level Level) *Manager {
	return &Manager{
		loggers: []singleLogger{{
			stdout:        w,
			Level:         level,
			Types:         map[string]bool{"*": true},
			ExcludedTypes: map[string]bool{},
		}},
	}
}

func writerOrNil(enabled bool, w io.Writer) io.Writer {
	if enabled {
		return w
	}
	return nil
}

// Close flushes and closes any log files.
func (logger *Manager) Close() {
	if logger == nil {
		return
	}
	logger.configMutex.Lock()
	defer logger.configMutex.Unlock()
	for _, l := range logger.loggers {
		l.Close()
	}
	logger.loggers = nil
}

// Log logs the given message with the given details.
func (logger *Manager) Log(level Level, logType string, messageParts ...string) {
	if logger == nil {
		return
	}

	logger.configMutex.RLock()
	defer logger.configMutex.RUnlock()

	for _, singleLogger := range logger.loggers {
		singleLogger.Log(level, logType, messageParts...)
	}
}

// Debug logs the given message as a debug message.
func (logger *Manager) Debug(logType string, messageParts ...string) {
	logger.Log(LogDebug, logType, messageParts...)
}

// Info logs the given message as an info message.
func (logger *Manager) Info(logType string, messageParts ...string) {
	logger.Log(LogInfo, logType, messageParts...)
}

// Warning logs the given message as a warning message.
func (logger *Manager) Warning(logType string, messageParts ...string) {
	logger.Log(LogWarning, logType, messageParts...)
}

// Error logs the given message as an error message.
func (logger *Manager) Error(logType string, messageParts ...string) {
	logger.Log(LogError, logType, messageParts...)
}

type fileMethod struct {
	Enabled  bool
	Filename string
	File     *os.File
	Writer   *bufio.Writer
}

// singleLogger represents a single logger instance.
type singleLogger struct {
	stdoutWriteLock *sync.Mutex
	fileWriteLock   *sync.Mutex
	stdout          io.Writer
	stderr          io.Writer
	MethodFile      fileMethod
	Level           Level
	Types           map[string]bool
	ExcludedTypes   map[string]bool
}

func (logger *singleLogger) Close() error {
	if logger.MethodFile.Enabled {
		flushErr := logger.MethodFile.Writer.Flush()
		closeErr := logger.MethodFile.File.Close()
		if flushErr != nil {
			return flushErr
		}
		return closeErr
	}
	return nil
}

// Log logs the given message with the given details.
func (logger *singleLogger) Log(level Level, logType string, messageParts ...string) {
	// no logging enabled
	if logger.stdout == nil && logger.stderr == nil && !logger.MethodFile.Enabled {
		return
	}

	// ensure we're logging to the given level
	if level < logger.Level {
		return
	}

	// ensure we're capturing this logType
	capturing := (logger.Types["*"] || logger.Types[logType]) && !logger.ExcludedTypes["*"] && !logger.ExcludedTypes[logType]
	if !capturing {
		return
	}

	// assemble full line

	var rawBuf bytes.Buffer
	// XXX magic number here: 9 is len("styliser"), the longest log category
	// name in current use, plus one.
	fmt.Fprintf(&rawBuf, "%s : %-5s : %-9s : ", time.Now().UTC().Format("2006-01-02T15:04:05.000Z"), LogLevelDisplayNames[level], logType)
	for i, p := range messageParts {
		rawBuf.WriteString(p)

		if i != len(messageParts)-1 {
			rawBuf.WriteString(" : ")
		}
	}
	rawBuf.WriteRune('\n')

	// output
	if logger.stdout != nil {
		if logger.stdoutWriteLock != nil {
			logger.stdoutWriteLock.Lock()
			defer logger.stdoutWriteLock.Unlock()
		}
		logger.stdout.Write(rawBuf.Bytes())
	}
	if logger.stderr != nil {
		if logger.stdout == nil && logger.stdoutWriteLock != nil {
			logger.stdoutWriteLock.Lock()
			defer logger.stdoutWriteLock.Unlock()
		}
		logger.stderr.Write(rawBuf.Bytes())
	}
	if logger.MethodFile.Enabled {
		logger.fileWriteLock.Lock()
		logger.MethodFile.Writer.Write(rawBuf.Bytes())
		logger.MethodFile.Writer.Flush()
		logger.fileWriteLock.Unlock()
	}
}
