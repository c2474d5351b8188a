// Package wxerr defines the closed set of failure kinds returned by the
// event store access layer.
//
// Every fallible operation in the codec, client and feed parsers returns an
// *Error carrying exactly one Kind. The underlying cause is kept unchanged
// and is reachable through errors.Unwrap / errors.As. Callers branch on the
// kind with errors.Is against the exported sentinels:
//
//	if errors.Is(err, wxerr.ErrTransport) {
//		// retry, skip or abort; the client never retries by itself
//	}
package wxerr

import (
	"errors"
	"strings"
)

// Kind classifies a failure.
type Kind uint8

const (
	// KindUnknown is reported by KindOf for errors that did not come from this module.
	KindUnknown Kind = iota
	// KindIO is a local I/O failure (files, sockets outside the transport).
	KindIO
	// KindTransport is a connection, send or receive failure, including timeouts.
	KindTransport
	// KindProtocol is malformed or unrecognized reply framing.
	KindProtocol
	// KindApplication is a failure explicitly reported by the store.
	KindApplication
	// KindSerialization is an encode/decode mismatch or an invalid value.
	KindSerialization
	// KindEncoding is invalid UTF-8 in a decoded string.
	KindEncoding
	// KindParse is malformed numeric or timestamp text from an upstream feed.
	KindParse
)

var kindNames = [...]string{
	KindUnknown:       "unknown",
	KindIO:            "io",
	KindTransport:     "transport",
	KindProtocol:      "protocol",
	KindApplication:   "application",
	KindSerialization: "serialization",
	KindEncoding:      "encoding",
	KindParse:         "parse",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrIO            = &Error{Kind: KindIO}
	ErrTransport     = &Error{Kind: KindTransport}
	ErrProtocol      = &Error{Kind: KindProtocol}
	ErrApplication   = &Error{Kind: KindApplication}
	ErrSerialization = &Error{Kind: KindSerialization}
	ErrEncoding      = &Error{Kind: KindEncoding}
	ErrParse         = &Error{Kind: KindParse}
)

// Error is the single error type of the access layer.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "rpc.get_events".
	Op string
	// Msg is a human-readable detail. For KindApplication it is the
	// message sent by the store, unchanged.
	Msg string
	// Err is the wrapped cause, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a bare sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// New builds an error of the given kind without an underlying cause.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap builds an error of the given kind around cause. A nil cause yields nil.
func Wrap(kind Kind, op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: cause}
}

func IO(op string, cause error) error            { return Wrap(KindIO, op, cause) }
func Transport(op string, cause error) error     { return Wrap(KindTransport, op, cause) }
func Serialization(op string, cause error) error { return Wrap(KindSerialization, op, cause) }
func Encoding(op string, cause error) error      { return Wrap(KindEncoding, op, cause) }
func Parse(op string, cause error) error         { return Wrap(KindParse, op, cause) }

// Protocol reports malformed reply framing.
func Protocol(op, msg string) error { return New(KindProtocol, op, msg) }

// Application carries a failure message reported by the store.
func Application(op, msg string) error { return New(KindApplication, op, msg) }
