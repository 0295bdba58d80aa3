package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSession is returned when an operation targets a session that
	// is not (or no longer) registered, e.g. a chunk arriving after disconnect.
	ErrUnknownSession = errors.New("unknown session")

	// ErrDuplicateSession is returned when a session id is registered twice.
	ErrDuplicateSession = errors.New("session already exists")

	// ErrEmptyQuery is returned by the reply relay for an absent or blank query.
	// Its text is shown to the user as is.
	ErrEmptyQuery = errors.New("No message provided.")
)

// DecodeError reports that a compressed audio blob could not be turned into PCM.
type DecodeError struct {
	// Diagnostic is the transcoder's own output (ffmpeg stderr), if any.
	Diagnostic string
	Err        error
}

func (e *DecodeError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("decode audio: %v: %s", e.Err, e.Diagnostic)
	}
	return fmt.Sprintf("decode audio: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TranscriptionError reports a speech engine failure.
type TranscriptionError struct {
	Engine string
	Err    error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcribe with %s: %v", e.Engine, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// ReplyError wraps a reply engine failure. It is routed to the error channel
// instead of the normal reply channel.
type ReplyError struct {
	Engine string
	Err    error
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("[%s Error] %v", e.Engine, e.Err)
}

func (e *ReplyError) Unwrap() error { return e.Err }
