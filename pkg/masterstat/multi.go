package masterstat

import (
	"slices"
	"sync"
	"time"
)

// QuerySuccess is the outcome of one master query that returned a server
// list.
type QuerySuccess struct {
	// MasterAddress is the master's address as given to QueryMultiple.
	MasterAddress string

	// ServerAddresses are the reported "ip:port" strings, in wire order.
	ServerAddresses []string
}

// QueryFailure is the outcome of one master query that failed.
type QueryFailure struct {
	// MasterAddress is the master's address as given to QueryMultiple.
	MasterAddress string

	// Err is the transport or parse error, unchanged.
	Err error
}

// MultiQueryResult aggregates the outcomes of one QueryMultiple run. Every
// input master contributes exactly one entry, either to Successes or to
// Failures. The order of entries carries no meaning.
type MultiQueryResult struct {
	Successes []QuerySuccess
	Failures  []QueryFailure
}

// ServerAddresses returns the union of all addresses across successful
// queries, sorted by their "ip:port" string form with exact duplicates
// removed.
func (r *MultiQueryResult) ServerAddresses() []string {
	var addresses []string
	for _, success := range r.Successes {
		addresses = append(addresses, success.ServerAddresses...)
	}

	slices.Sort(addresses)

	return slices.Compact(addresses)
}

// QueryMultiple queries all masters concurrently with the same timeout and
// collects every outcome. One master failing never affects another; the call
// returns only after every query has finished, so its duration is bounded by
// the slowest single query. Duplicate entries in masterAddresses are queried
// and reported separately.
func QueryMultiple(masterAddresses []string, timeout time.Duration) *MultiQueryResult {
	type outcome struct {
		masterAddress string
		addresses     []string
		err           error
	}

	outcomes := make(chan outcome, len(masterAddresses))
	var wg sync.WaitGroup

	for _, masterAddress := range masterAddresses {
		wg.Add(1)
		go func(masterAddress string) {
			defer wg.Done()

			addresses, err := Query(masterAddress, timeout)
			outcomes <- outcome{masterAddress: masterAddress, addresses: addresses, err: err}
		}(masterAddress)
	}

	wg.Wait()
	close(outcomes)

	result := &MultiQueryResult{}
	for o := range outcomes {
		if o.err != nil {
			result.Failures = append(result.Failures, QueryFailure{
				MasterAddress: o.masterAddress,
				Err:           o.err,
			})
			continue
		}

		result.Successes = append(result.Successes, QuerySuccess{
			MasterAddress:   o.masterAddress,
			ServerAddresses: o.addresses,
		})
	}

	return result
}
