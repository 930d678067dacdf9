package logging

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/aws/smithy-go"
)

type namedError interface {
	Name() string
}

type stackError interface {
	Stack() string
}

type codedError interface {
	Code() string
}

type statusCodeError interface {
	HTTPStatusCode() int
}

func describeError(err error) Fields {
	d := Fields{
		"message": err.Error(),
		"name":    ErrorName(err),
		"stack":   errorStack(err),
	}
	if code := errorCode(err); code != "" {
		d["code"] = code
	}
	var sc statusCodeError
	if errors.As(err, &sc) && sc.HTTPStatusCode() != 0 {
		d["statusCode"] = sc.HTTPStatusCode()
	}
	return d
}

// ErrorName prefers an explicit Name, then the AWS error code (which is the
// exception name), then the Go type of the root cause.
func ErrorName(err error) string {
	var named namedError
	if errors.As(err, &named) && named.Name() != "" {
		return named.Name()
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() != "" {
		return apiErr.ErrorCode()
	}
	root := err
	for {
		next := errors.Unwrap(root)
		if next == nil {
			break
		}
		root = next
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", root), "*")
}

func errorCode(err error) string {
	var coded codedError
	if errors.As(err, &coded) && coded.Code() != "" {
		return coded.Code()
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// errorStack returns the stack captured where the error was created, or the
// logging call site when the error carries none.
func errorStack(err error) string {
	var st stackError
	if errors.As(err, &st) && st.Stack() != "" {
		return st.Stack()
	}
	return CallerStack(4)
}

// CallerStack formats the goroutine's stack, skipping skip frames.
func CallerStack(skip int) string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
