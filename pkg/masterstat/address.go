// Package masterstat queries QuakeWorld master servers for the addresses of
// currently registered game servers, one master at a time or as a concurrent
// fan-out over many masters.
package masterstat

import (
	"cmp"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"slices"
)

// addressRecordSize is the wire size of one server entry: 4 IP octets
// followed by a big-endian uint16 port.
const addressRecordSize = 6

// ServerAddress identifies one game server reported by a master.
type ServerAddress struct {
	// IP in dotted-decimal form, e.g. "192.168.1.1".
	IP string

	// Port the game server listens on.
	Port uint16
}

// addressFromRecord decodes one 6-byte wire record.
func addressFromRecord(record []byte) ServerAddress {
	return ServerAddress{
		IP:   fmt.Sprintf("%d.%d.%d.%d", record[0], record[1], record[2], record[3]),
		Port: binary.BigEndian.Uint16(record[4:addressRecordSize]),
	}
}

// String returns the address as "ip:port".
func (a ServerAddress) String() string {
	return fmt.Sprintf("%s:%d", a.IP, a.Port)
}

// Compare orders addresses by IP string, then by port. The IP part compares
// as a string, so "2.0.0.0" sorts after "10.0.0.0".
func (a ServerAddress) Compare(other ServerAddress) int {
	if c := cmp.Compare(a.IP, other.IP); c != 0 {
		return c
	}

	return cmp.Compare(a.Port, other.Port)
}

// MarshalJSON encodes the address as its "ip:port" string form.
func (a ServerAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// SortedAndUnique returns a sorted copy of addresses with exact duplicates
// removed. The input slice is not modified.
func SortedAndUnique(addresses []ServerAddress) []ServerAddress {
	servers := slices.Clone(addresses)
	slices.SortFunc(servers, ServerAddress.Compare)

	return slices.Compact(servers)
}
