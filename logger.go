package s3

import (
	"log"
	"reflect"

	"github.com/goliatone/go-print"
)

// Logger allows dependency injection of logging into the credential
// chain, the transport's retry loop, and the multipart streamer's
// best-effort abort path.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// DefaultLogger writes through the standard library logger. Debug lines
// pretty-print their last argument with go-print when it looks like a
// structured payload (a map or struct that is not an error); otherwise
// msg is formatted with args as usual. This matches the teacher's use of
// go-print for response bodies.
type DefaultLogger struct {
	Verbose bool
}

func (l *DefaultLogger) Info(msg string, args ...any) {
	log.Printf(" [INFO] s3 | "+msg+"\n", args...)
}

func (l *DefaultLogger) Error(msg string, args ...any) {
	log.Printf("[ERROR] s3 | "+msg+"\n", args...)
}

func (l *DefaultLogger) Debug(msg string, args ...any) {
	if !l.Verbose {
		return
	}
	if len(args) > 0 {
		last := args[len(args)-1]
		if _, isErr := last.(error); !isErr {
			switch reflect.Indirect(reflect.ValueOf(last)).Kind() {
			case reflect.Map, reflect.Struct:
				log.Printf("[DEBUG] s3 | %s\n%s", msg, print.MaybeHighlightJSON(last))
				return
			}
		}
	}
	log.Printf("[DEBUG] s3 | "+msg+"\n", args...)
}

// nopLogger discards everything; used as the zero-value fallback so
// internal code never has to nil-check a Logger.
type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Debug(string, ...any) {}
