package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/woozymasta/masterstat/internal/models"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	repo, err := New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestUpsertServer(t *testing.T) {
	repo := newTestRepository(t)

	first := time.Now().Add(-time.Hour).UTC()
	server := models.Server{
		IP:          "192.168.1.1",
		Port:        27500,
		CountryCode: "SE",
		FirstSeen:   first,
		LastSeen:    first,
	}

	if err := repo.UpsertServer(server); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Second sighting without a country must keep the old code
	server.CountryCode = ""
	server.LastSeen = time.Now().UTC()
	if err := repo.UpsertServer(server); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	servers, err := repo.GetServers()
	if err != nil {
		t.Fatalf("get servers: %v", err)
	}
	if len(servers) != 1 {
		t.Fatalf("got %d servers, want 1", len(servers))
	}

	got := servers[0]
	if got.Count != 2 {
		t.Errorf("got count %d, want 2", got.Count)
	}
	if got.CountryCode != "SE" {
		t.Errorf("got country %q, want SE", got.CountryCode)
	}
	if !got.LastSeen.After(got.FirstSeen) {
		t.Errorf("last_seen %v not after first_seen %v", got.LastSeen, got.FirstSeen)
	}
}

func TestPruneStale(t *testing.T) {
	repo := newTestRepository(t)

	now := time.Now().UTC()
	stale := models.Server{IP: "1.1.1.1", Port: 1, FirstSeen: now.Add(-48 * time.Hour), LastSeen: now.Add(-48 * time.Hour)}
	fresh := models.Server{IP: "2.2.2.2", Port: 2, FirstSeen: now, LastSeen: now}

	if err := repo.UpsertServer(stale); err != nil {
		t.Fatalf("upsert stale: %v", err)
	}
	if err := repo.UpsertServer(fresh); err != nil {
		t.Fatalf("upsert fresh: %v", err)
	}

	pruned, err := repo.PruneStale(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned %d rows, want 1", pruned)
	}

	servers, err := repo.GetServers()
	if err != nil {
		t.Fatalf("get servers: %v", err)
	}
	if len(servers) != 1 || servers[0].IP != "2.2.2.2" {
		t.Errorf("got %v, want only 2.2.2.2", servers)
	}
}

func TestRunLog(t *testing.T) {
	repo := newTestRepository(t)

	hash, err := repo.LastRunHash()
	if err != nil {
		t.Fatalf("last run hash: %v", err)
	}
	if hash != "" {
		t.Errorf("got hash %q before any run, want empty", hash)
	}

	runs := []models.Run{
		{StartedAt: time.Now().UTC(), MastersTotal: 4, MastersFailed: 1, ServersTotal: 100, ListHash: "aaaa"},
		{StartedAt: time.Now().UTC(), MastersTotal: 4, MastersFailed: 0, ServersTotal: 120, ListHash: "bbbb"},
	}
	for _, run := range runs {
		if err := repo.RecordRun(run); err != nil {
			t.Fatalf("record run: %v", err)
		}
	}

	hash, err = repo.LastRunHash()
	if err != nil {
		t.Fatalf("last run hash: %v", err)
	}
	if hash != "bbbb" {
		t.Errorf("got hash %q, want bbbb", hash)
	}
}
