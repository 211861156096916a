package masterstat

import (
	"bytes"
	"errors"
	"time"

	"github.com/woozymasta/masterstat/pkg/tinyudp"
)

// ErrInvalidResponse means the master's reply did not start with the
// expected response header.
var ErrInvalidResponse = errors.New("invalid response")

// statusRequest asks a master for its list of registered servers.
var statusRequest = []byte{99, 10, 0}

// responseHeader prefixes every valid master status reply.
var responseHeader = []byte{255, 255, 255, 255, 100, 10}

// receiveBufferSize fits the largest server list a master will send.
const receiveBufferSize = 64 * 1024

// ServerAddresses queries a single master server (host:port) and returns the
// game server addresses it reported, in wire order. Transport errors from
// package tinyudp and ErrInvalidResponse propagate unchanged.
func ServerAddresses(masterAddress string, timeout time.Duration) ([]ServerAddress, error) {
	response, err := tinyudp.SendAndReceive(masterAddress, statusRequest, tinyudp.Options{
		Timeout:    timeout,
		BufferSize: receiveBufferSize,
	})
	if err != nil {
		return nil, err
	}

	return parseResponse(response)
}

// Query queries a single master server and returns the reported addresses as
// "ip:port" strings, in wire order, without deduplication.
func Query(masterAddress string, timeout time.Duration) ([]string, error) {
	servers, err := ServerAddresses(masterAddress, timeout)
	if err != nil {
		return nil, err
	}

	addresses := make([]string, len(servers))
	for i, server := range servers {
		addresses[i] = server.String()
	}

	return addresses, nil
}

// parseResponse validates the response header and decodes the packed 6-byte
// address records that follow it. The record list has no count field or
// terminator; fewer than 6 bytes remaining is the end-of-list signal, and
// any trailing partial record is discarded.
func parseResponse(response []byte) ([]ServerAddress, error) {
	if !bytes.HasPrefix(response, responseHeader) {
		return nil, ErrInvalidResponse
	}

	body := response[len(responseHeader):]
	addresses := make([]ServerAddress, 0, len(body)/addressRecordSize)

	for len(body) >= addressRecordSize {
		addresses = append(addresses, addressFromRecord(body[:addressRecordSize]))
		body = body[addressRecordSize:]
	}

	return addresses, nil
}
