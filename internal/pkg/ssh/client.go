package ssh

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/melbahja/goph"
	"golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"
)

const (
	keepaliveRequest   = "keepalive@openssh.com"
	keepaliveMaxMissed = 3
)

type Options struct {
	ConnectTimeout    time.Duration
	KeepaliveInterval time.Duration
}

// Client is an Executor that opens one password-authenticated connection per
// Execute call and always closes it before returning.
type Client struct {
	opts     Options
	observer Observer
}

func NewClient(observer Observer, opts Options) *Client {
	if observer == nil {
		observer = nopObserver{}
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.KeepaliveInterval <= 0 {
		opts.KeepaliveInterval = DefaultKeepaliveInterval
	}
	return &Client{
		opts:     opts,
		observer: observer,
	}
}

func (c *Client) Execute(cred Credential, command string) (*CommandResult, error) {
	client, err := c.connect(cred)
	if err != nil {
		c.observer.ConnectionFailed(cred, err)
		return nil, err
	}
	defer client.Close()

	c.observer.Connected(cred, command)

	probe := startKeepalive(client, c.opts.KeepaliveInterval)
	defer probe.stop()

	started := time.Now()
	result, err := run(client, command)
	if probe.dead() {
		err = &ConnectionError{Addr: cred.Addr(), Err: ErrKeepaliveFailed}
	}
	if err != nil {
		if IsConnectionError(err) {
			c.observer.ConnectionFailed(cred, err)
		}
		return nil, err
	}

	c.observer.Completed(cred, result, time.Since(started))
	return result, nil
}

func (c *Client) connect(cred Credential) (*goph.Client, error) {
	addr := cred.Addr()
	config := &ssh.ClientConfig{
		User:            cred.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(cred.Password)},
		Timeout:         c.opts.ConnectTimeout,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // hosts are addressed by discovered IP, no known_hosts to check against
	}

	deadline := time.Now().Add(c.opts.ConnectTimeout)
	conn, err := net.DialTimeout("tcp", addr, c.opts.ConnectTimeout)
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}

	// The dial timeout does not cover the handshake and authentication.
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, &ConnectionError{Addr: addr, Err: err}
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		var netErr net.Error
		if time.Now().After(deadline) || (errors.As(err, &netErr) && netErr.Timeout()) {
			err = fmt.Errorf("%w: %v", ErrHandshakeTimeout, err)
		}
		return nil, &ConnectionError{Addr: addr, Err: err}
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		sshConn.Close()
		return nil, &ConnectionError{Addr: addr, Err: err}
	}

	return &goph.Client{Client: ssh.NewClient(sshConn, chans, reqs)}, nil
}

func run(client *goph.Client, command string) (*CommandResult, error) {
	cmd, err := client.Command(command)
	if err != nil {
		return nil, &CommandError{Command: command, Err: err}
	}
	defer cmd.Close()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &CommandError{Command: command, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &CommandError{Command: command, Err: err}
	}

	// Cmd.Start sends Path plus a separator even without Args, so the
	// command goes through the embedded session verbatim.
	if err := cmd.Session.Start(command); err != nil {
		return nil, &CommandError{Command: command, Err: err}
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&stdoutBuf, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&stderrBuf, stderr)
		return err
	})
	copyErr := g.Wait()
	waitErr := cmd.Wait()

	result := &CommandResult{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	var exitErr *ssh.ExitError
	var missingErr *ssh.ExitMissingError
	switch {
	case waitErr == nil:
		result.ExitCode = intPtr(0)
	case errors.As(waitErr, &exitErr):
		result.Signal = exitErr.Signal()
		if result.Signal == "" {
			result.ExitCode = intPtr(exitErr.ExitStatus())
		}
	case errors.As(waitErr, &missingErr):
		// no exit status, the result stays unsuccessful
	default:
		return nil, &ConnectionError{Addr: client.RemoteAddr().String(), Err: waitErr}
	}
	if copyErr != nil && result.ExitCode == nil {
		return nil, &ConnectionError{Addr: client.RemoteAddr().String(), Err: copyErr}
	}

	result.Succeeded = result.ExitCode != nil && *result.ExitCode == 0
	return result, nil
}

func intPtr(v int) *int {
	return &v
}

type keepalive struct {
	done     chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
	failed   bool
}

// startKeepalive probes the transport every interval and closes the client
// when a probe fails or stays unanswered for keepaliveMaxMissed intervals.
func startKeepalive(client *goph.Client, interval time.Duration) *keepalive {
	k := &keepalive{done: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-k.done:
				return
			case <-ticker.C:
			}

			reply := make(chan error, 1)
			go func() {
				_, _, err := client.SendRequest(keepaliveRequest, true, nil)
				reply <- err
			}()

			select {
			case <-k.done:
				return
			case err := <-reply:
				if err == nil {
					continue
				}
			case <-time.After(keepaliveMaxMissed * interval):
			}

			k.mu.Lock()
			k.failed = true
			k.mu.Unlock()
			client.Close()
			return
		}
	}()

	return k
}

func (k *keepalive) stop() {
	k.stopOnce.Do(func() { close(k.done) })
}

func (k *keepalive) dead() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.failed
}
