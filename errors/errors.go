// Package errors chains errors with the source location they were created or wrapped at.
//
// Locations are only included in the message when BOOTSTRAP_DEBUG=errortrace is set, or when
// formatted with "%+v".
package errors

import (
	"errors" // nolint: depguard
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cashapp/bootstrap/util/debug"
)

type berr struct {
	cause error
	file  string
	line  int
	msg   string
}

func (b *berr) Error() string {
	return b.format(debug.Flags.ErrorTrace)
}

func (b *berr) Unwrap() error {
	return b.cause
}

func (b *berr) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprint(s, b.format(true))
		} else {
			fmt.Fprint(s, b.Error())
		}
	case 's':
		fmt.Fprint(s, b.format(debug.Flags.ErrorTrace))
	case 'q':
		fmt.Fprintf(s, "%q", b.format(debug.Flags.ErrorTrace))
	}
}

func (b *berr) format(trace bool) string {
	var msg string
	if trace {
		msg += fmt.Sprintf("%s:%d", b.file, b.line)
		if b.msg != "" {
			msg += ": " + b.msg
		}
	} else {
		msg += b.msg
	}
	if b.cause != nil {
		if msg != "" {
			msg += ": "
		}
		if trace {
			msg += fmt.Sprintf("%+v", b.cause)
		} else {
			msg += b.cause.Error()
		}
	}
	return msg
}

var pkgPrefix = func() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(filepath.Dir(file)) + "/"
}()

func newErr(cause error, msg string) error {
	_, file, line, _ := runtime.Caller(2)
	file = strings.TrimPrefix(file, pkgPrefix)
	return &berr{cause: cause, file: file, line: line, msg: msg}
}

// New creates a new error.
func New(message string) error {
	return newErr(nil, message)
}

// Errorf creates a new error using fmt.Sprintf().
func Errorf(format string, args ...interface{}) error {
	return newErr(nil, fmt.Sprintf(format, args...))
}

// Wrap chains a new error to "err" if it is not nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return newErr(err, message)
}

// Wrapf chains a new fmt.Sprintf() formatted error to "err" if "err" is not nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return newErr(err, fmt.Sprintf(format, args...))
}

// WithStack chains source location information to an error if "err" is not nil.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	return newErr(err, "")
}

// Is mirrors the stdlib errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As mirrors the stdlib errors.As function.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Unwrap aliases the stdlib errors.Unwrap function.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join aliases the stdlib errors.Join function.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
