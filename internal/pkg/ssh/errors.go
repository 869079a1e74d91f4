package ssh

import (
	"errors"
	"fmt"
)

var (
	ErrHandshakeTimeout = errors.New("handshake did not complete in time")
	ErrKeepaliveFailed  = errors.New("keepalive probe got no reply, transport is dead")
)

// ConnectionError reports that the transport could not be established or
// was lost: dial, handshake, authentication or keepalive failure.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// CommandError reports that the remote side refused to start the command.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command error: %v", e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

func IsCommandError(err error) bool {
	var cmdErr *CommandError
	return errors.As(err, &cmdErr)
}
