// Package output builds and renders the report of one query run.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/woozymasta/masterstat/pkg/masterstat"
)

// Server is one discovered game server in the report.
type Server struct {
	Address string `json:"address"`
	Country string `json:"country,omitempty"`
}

// Master is the per-master outcome in the report.
type Master struct {
	Address string `json:"address"`
	Error   string `json:"error,omitempty"`
	Servers int    `json:"servers"`
}

// Report is the full result of one fan-out over the configured masters.
type Report struct {
	Timestamp   time.Time `json:"timestamp"`
	Fingerprint string    `json:"fingerprint"`
	Masters     []Master  `json:"masters"`
	Servers     []Server  `json:"servers"`
}

// CountryLookup resolves an IP string to an ISO country code; an empty
// result means unknown. May be nil to skip country annotation.
type CountryLookup func(ip string) string

// Build assembles a report from the fan-out result: the deduplicated sorted
// server list (optionally annotated with countries) plus one entry per
// queried master, sorted by master address for stable output.
func Build(result *masterstat.MultiQueryResult, lookup CountryLookup) *Report {
	addresses := result.ServerAddresses()

	report := &Report{
		Timestamp:   time.Now().UTC(),
		Fingerprint: Fingerprint(addresses),
		Servers:     make([]Server, 0, len(addresses)),
		Masters:     make([]Master, 0, len(result.Successes)+len(result.Failures)),
	}

	for _, address := range addresses {
		server := Server{Address: address}
		if lookup != nil {
			if i := strings.LastIndexByte(address, ':'); i > 0 {
				server.Country = lookup(address[:i])
			}
		}
		report.Servers = append(report.Servers, server)
	}

	for _, success := range result.Successes {
		report.Masters = append(report.Masters, Master{
			Address: success.MasterAddress,
			Servers: len(success.ServerAddresses),
		})
	}
	for _, failure := range result.Failures {
		report.Masters = append(report.Masters, Master{
			Address: failure.MasterAddress,
			Error:   failure.Err.Error(),
		})
	}

	slices.SortStableFunc(report.Masters, func(a, b Master) int {
		return strings.Compare(a.Address, b.Address)
	})

	return report
}

// Fingerprint returns a 64-bit xxhash of the address list, used to detect
// server list changes between runs.
func Fingerprint(addresses []string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(strings.Join(addresses, "\n")))
}

// Write renders the report in the requested format ("text" or "json").
func (r *Report) Write(w io.Writer, format string) error {
	if format == "json" {
		return r.writeJSON(w)
	}

	return r.writeText(w)
}

// writeText prints one server per line, with the country code appended when
// known.
func (r *Report) writeText(w io.Writer) error {
	for _, server := range r.Servers {
		var err error
		if server.Country != "" {
			_, err = fmt.Fprintf(w, "%s %s\n", server.Address, server.Country)
		} else {
			_, err = fmt.Fprintln(w, server.Address)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *Report) writeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(r)
}
