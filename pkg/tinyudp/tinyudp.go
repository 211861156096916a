// Package tinyudp implements a minimal one-shot UDP request/response client:
// bind an ephemeral socket, send a single datagram, wait for a single reply
// or a deadline.
package tinyudp

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// Errors returned by SendAndReceive, matched with errors.Is.
var (
	// ErrBindFailed means the local ephemeral socket could not be opened.
	ErrBindFailed = errors.New("failed to bind socket")

	// ErrSendFailed means the datagram could not be transmitted, including
	// target address resolution failure.
	ErrSendFailed = errors.New("failed to send message")

	// ErrReceiveFailed means the OS reported an error while receiving.
	ErrReceiveFailed = errors.New("failed to receive message")

	// ErrTimeoutReached means no reply arrived within Options.Timeout.
	ErrTimeoutReached = errors.New("timeout reached while waiting for response")
)

// Options control a single SendAndReceive call.
type Options struct {
	// Timeout is the maximum time to wait for a reply after the send.
	Timeout time.Duration

	// BufferSize is the maximum reply size in bytes; longer datagrams are
	// truncated by the OS.
	BufferSize int
}

// SendAndReceive sends message to target (a host:port pair) from a fresh
// ephemeral UDP socket and returns the first datagram received before the
// timeout expires. The socket is closed before returning.
//
// The reply is not matched against the target: a datagram from any sender
// satisfies the wait. There are no retries; each call is one request attempt.
func SendAndReceive(target string, message []byte, opts Options) ([]byte, error) {
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBindFailed, err)
	}
	defer func() { _ = conn.Close() }()

	addr, err := net.ResolveUDPAddr("udp4", target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	if _, err := conn.WriteToUDP(message, addr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(opts.Timeout)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReceiveFailed, err)
	}

	buffer := make([]byte, opts.BufferSize)
	n, _, err := conn.ReadFromUDP(buffer)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrTimeoutReached
		}
		return nil, fmt.Errorf("%w: %v", ErrReceiveFailed, err)
	}

	return buffer[:n], nil
}
