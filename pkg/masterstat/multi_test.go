package masterstat

import (
	"slices"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestQueryMultiple(t *testing.T) {
	// Both masters report 4.4.4.4:30000; the union must collapse it.
	masterA := startFakeMaster(t, validResponse(
		[]byte{4, 4, 4, 4, 0x75, 0x30},
		[]byte{1, 1, 1, 1, 0x75, 0x30},
	))
	masterB := startFakeMaster(t, validResponse(
		[]byte{4, 4, 4, 4, 0x75, 0x30},
		[]byte{3, 3, 3, 3, 0x75, 0x30},
	))
	badMaster := "127.0.0.1:notaport"

	result := QueryMultiple([]string{masterA, masterB, badMaster}, time.Second)

	if got := len(result.Successes) + len(result.Failures); got != 3 {
		t.Fatalf("got %d outcomes, want 3", got)
	}
	if len(result.Successes) != 2 {
		t.Errorf("got %d successes, want 2", len(result.Successes))
	}
	if len(result.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(result.Failures))
	}
	if result.Failures[0].MasterAddress != badMaster {
		t.Errorf("failure master %q, want %q", result.Failures[0].MasterAddress, badMaster)
	}
	if result.Failures[0].Err == nil {
		t.Error("failure has nil error")
	}

	want := []string{"1.1.1.1:30000", "3.3.3.3:30000", "4.4.4.4:30000"}
	if got := result.ServerAddresses(); !slices.Equal(got, want) {
		t.Errorf("got addresses %v, want %v", got, want)
	}
}

func TestQueryMultipleDuplicateMasters(t *testing.T) {
	master := startFakeMaster(t, validResponse([]byte{1, 1, 1, 1, 0x75, 0x30}))

	result := QueryMultiple([]string{master, master}, time.Second)

	if len(result.Successes) != 2 {
		t.Fatalf("got %d successes, want 2 (one per input entry)", len(result.Successes))
	}
	for _, success := range result.Successes {
		if success.MasterAddress != master {
			t.Errorf("success master %q, want %q", success.MasterAddress, master)
		}
	}

	want := []string{"1.1.1.1:30000"}
	if got := result.ServerAddresses(); !slices.Equal(got, want) {
		t.Errorf("got addresses %v, want %v", got, want)
	}
}

func TestQueryMultipleAllFail(t *testing.T) {
	masters := []string{"127.0.0.1:bad", "127.0.0.1:worse"}

	result := QueryMultiple(masters, time.Second)

	if len(result.Successes) != 0 {
		t.Errorf("got %d successes, want 0", len(result.Successes))
	}
	if len(result.Failures) != len(masters) {
		t.Errorf("got %d failures, want %d", len(result.Failures), len(masters))
	}
	if got := result.ServerAddresses(); len(got) != 0 {
		t.Errorf("got addresses %v, want none", got)
	}
}

func TestQueryMultipleNoMasters(t *testing.T) {
	result := QueryMultiple(nil, time.Second)

	if len(result.Successes) != 0 || len(result.Failures) != 0 {
		t.Errorf("got %d successes and %d failures, want none",
			len(result.Successes), len(result.Failures))
	}
}

func TestQueryMultipleOneSlowMaster(t *testing.T) {
	// A master that never answers must not stall the others past the timeout.
	silent := startFakeMaster(t, nil)
	responsive := startFakeMaster(t, validResponse([]byte{1, 1, 1, 1, 0x75, 0x30}))

	timeout := 200 * time.Millisecond
	started := time.Now()
	result := QueryMultiple([]string{silent, responsive}, timeout)
	elapsed := time.Since(started)

	if len(result.Successes) != 1 || len(result.Failures) != 1 {
		t.Fatalf("got %d successes and %d failures, want 1 and 1",
			len(result.Successes), len(result.Failures))
	}
	if elapsed > timeout+2*time.Second {
		t.Errorf("fan-out took %v, far past the %v timeout", elapsed, timeout)
	}
}
