package ssh

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	DefaultPort              = 22
	DefaultConnectTimeout    = 30 * time.Second
	DefaultKeepaliveInterval = 10 * time.Second
)

// Credential identifies one remote host and the password login used on it.
// It lives for a single deployment request and is never stored.
type Credential struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (c Credential) port() int {
	if c.Port <= 0 {
		return DefaultPort
	}
	return c.Port
}

func (c Credential) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.port()))
}

// WithHost returns a copy of the credential pointed at another host.
func (c Credential) WithHost(host string) Credential {
	c.Host = host
	return c
}

// String never includes the password.
func (c Credential) String() string {
	return fmt.Sprintf("%s@%s", c.Username, c.Addr())
}

// CommandResult is the outcome of one remote command. A non-zero exit code
// is a normal result, not an error.
type CommandResult struct {
	Succeeded bool
	Stdout    string
	Stderr    string
	// ExitCode is nil when the remote process ended without an exit status,
	// e.g. when it was killed by a signal.
	ExitCode *int
	Signal   string
}

// Executor runs a single command on a remote host over a fresh connection.
type Executor interface {
	Execute(cred Credential, command string) (*CommandResult, error)
}

// Observer receives connection lifecycle events from a Client.
type Observer interface {
	Connected(cred Credential, command string)
	Completed(cred Credential, result *CommandResult, elapsed time.Duration)
	ConnectionFailed(cred Credential, err error)
}

type nopObserver struct{}

func (nopObserver) Connected(Credential, string)                        {}
func (nopObserver) Completed(Credential, *CommandResult, time.Duration) {}
func (nopObserver) ConnectionFailed(Credential, error)                  {}
