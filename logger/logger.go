package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	AppLogger    *log.Logger
	AccessLogger *log.Logger
	WarnLogger   *log.Logger
	ErrorLogger  *log.Logger

	mu            sync.Mutex
	logLevel      string
	appLogFile    *os.File
	accessLogFile *os.File
	initialized   bool
)

// levels lists the accepted log levels from most to least verbose.
var levels = map[string]int{
	"DEBUG": 0,
	"INFO":  1,
	"WARN":  2,
	"ERROR": 3,
}

// openLogFile creates the parent directory and opens path for appending.
// On any failure the returned writer discards output and the reason is reported on stderr.
func openLogFile(kind, path string) (io.Writer, *os.File, string) {
	if path == "" {
		return io.Discard, nil, "(discarded)"
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		ErrorLogger.Printf("Failed to create %s log directory %s: %v. %s logs will be discarded.", kind, dir, err, kind)
		return io.Discard, nil, "(discarded)"
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		ErrorLogger.Printf("Failed to open %s log file %s: %v. %s logs will be discarded.", kind, path, err, kind)
		return io.Discard, nil, "(discarded)"
	}
	return f, f, path
}

func InitGlobalLoggers(appLogPath, accessLogPath, level string) error {
	mu.Lock()
	defer mu.Unlock()

	level = strings.ToUpper(strings.TrimSpace(level))
	if level == "" {
		level = "INFO"
	}
	if _, ok := levels[level]; !ok {
		return fmt.Errorf("unknown log level %q (want DEBUG, INFO, WARN or ERROR)", level)
	}
	if initialized && appLogFile != nil && accessLogFile != nil && level == logLevel {
		return nil
	}
	closeFiles()

	logLevel = level
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)

	appWriter, appFile, actualAppLogPath := openLogFile("app", appLogPath)
	appLogFile = appFile
	AppLogger = log.New(appWriter, "APP: ", log.Ldate|log.Ltime|log.Lshortfile)
	WarnLogger = log.New(appWriter, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)

	accessWriter, accessFile, actualAccessLogPath := openLogFile("access", accessLogPath)
	accessLogFile = accessFile
	AccessLogger = log.New(accessWriter, "ACCESS: ", log.Ldate|log.Ltime)

	if !initialized {
		AppLogger.Printf("App logger initialized. Log level: %s. Output file: %s", logLevel, actualAppLogPath)
		AccessLogger.Printf("Access logger initialized. Output file: %s", actualAccessLogPath)
	}
	initialized = true
	return nil
}

// Level returns the active log level.
func Level() string {
	mu.Lock()
	defer mu.Unlock()
	return logLevel
}

func enabled(level string) bool {
	current, ok := levels[logLevel]
	if !ok {
		current = levels["INFO"]
	}
	return levels[level] >= current
}

func Info(format string, v ...interface{}) {
	if AppLogger != nil && enabled("INFO") {
		AppLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func Debug(format string, v ...interface{}) {
	if AppLogger != nil && enabled("DEBUG") {
		AppLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func Warn(format string, v ...interface{}) {
	if WarnLogger != nil && enabled("WARN") {
		WarnLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func Error(format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	if ErrorLogger != nil {
		ErrorLogger.Output(2, message)
	}
	if AppLogger != nil && appLogFile != nil {
		AppLogger.Output(2, message)
	}
}

func Fatal(format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	if ErrorLogger != nil {
		ErrorLogger.Fatal(message)
	} else {
		log.Fatal(message)
	}
}

// AccessInfo writes one line per handled request.
func AccessInfo(format string, v ...interface{}) {
	if AccessLogger != nil && enabled("INFO") {
		AccessLogger.Printf(format, v...)
	}
}

func AccessError(format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	if ErrorLogger != nil {
		ErrorLogger.Print(message)
	}
	if AccessLogger != nil && accessLogFile != nil {
		AccessLogger.Print(message)
	}
}

func closeFiles() {
	if appLogFile != nil {
		appLogFile.Close()
		appLogFile = nil
	}
	if accessLogFile != nil {
		accessLogFile.Close()
		accessLogFile = nil
	}
}

func CloseLogFiles() {
	mu.Lock()
	defer mu.Unlock()
	if appLogFile != nil {
		AppLogger.Println("Closing app log file.")
	}
	if accessLogFile != nil {
		AccessLogger.Println("Closing access log file.")
	}
	closeFiles()
	initialized = false // allows re-initialization, e.g. between tests
}
