package client

import (
	"errors"
	"io/fs"
	"syscall"

	"github.com/thenoetrevino/kansync/internal/protocol"
)

// ErrTransportFailure matches every *TransportError via errors.Is
var ErrTransportFailure = errors.New("transport failure")

// ErrorCode classifies a transport failure
type ErrorCode int

const (
	CodeSocketNotFound ErrorCode = iota
	CodeSocketPermission
	CodeDaemonNotRunning
	CodeConnectionRefused
	CodeWriteFailed
	CodeConnectionLost
	CodeAckTimeout
	CodeRejected
	CodeQueueFull
	CodeClosed
)

var codeNames = map[ErrorCode]string{
	CodeSocketNotFound:    "socket_not_found",
	CodeSocketPermission:  "socket_permission",
	CodeDaemonNotRunning:  "daemon_not_running",
	CodeConnectionRefused: "connection_refused",
	CodeWriteFailed:       "write_failed",
	CodeConnectionLost:    "connection_lost",
	CodeAckTimeout:        "ack_timeout",
	CodeRejected:          "rejected",
	CodeQueueFull:         "queue_full",
	CodeClosed:            "closed",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

// TransportError describes why a message did not reach an acknowledged state
type TransportError struct {
	Code    ErrorCode
	Seq     uint64
	Op      protocol.Operation
	Message string
	Hint    string
	// HostCode is the daemon's reason code for CodeRejected
	HostCode string
	Err      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = string(e.Op) + ": " + msg
	}
	if e.Hint != "" {
		return msg + ". " + e.Hint
	}
	return msg
}

// Is reports whether target is ErrTransportFailure
func (e *TransportError) Is(target error) bool {
	return target == ErrTransportFailure
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ClassifyDialError maps common dial errors to structured TransportError values.
func ClassifyDialError(err error) *TransportError {
	if err == nil {
		return nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return &TransportError{
			Code:    CodeSocketNotFound,
			Message: "Socket file not found",
			Hint:    "Start the host: kansyncd",
			Err:     err,
		}
	}

	if errors.Is(err, fs.ErrPermission) {
		return &TransportError{
			Code:    CodeSocketPermission,
			Message: "Permission denied",
			Hint:    "Check ~/.kansync/ permissions: chmod 700 ~/.kansync/",
			Err:     err,
		}
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && errno == syscall.ECONNREFUSED {
		return &TransportError{
			Code:    CodeConnectionRefused,
			Message: "Connection refused",
			Hint:    "The host may have crashed. Restart kansyncd",
			Err:     err,
		}
	}

	return &TransportError{
		Code:    CodeDaemonNotRunning,
		Message: "Host not running",
		Hint:    "Start the host: kansyncd",
		Err:     err,
	}
}
