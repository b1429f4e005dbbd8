package usecase

import (
	"errors"
	"testing"

	"github.com/trainwr/fantasy-cricket/internal/platform/logging"
)

func TestCatalogService_AdminOnlyOperations(t *testing.T) {
	manager := newTestManager()
	svc := NewCatalogService(manager, logging.NewNop())
	user := Actor{ID: "user-1"}

	if err := svc.CreateMatch(t.Context(), testRealm, user, "Final"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for create, got %v", err)
	}
	if err := svc.Lock(t.Context(), testRealm, user, "Final"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for lock, got %v", err)
	}
}

func TestCatalogService_CreateMatchRejectsDuplicate(t *testing.T) {
	manager := newTestManager()
	svc := NewCatalogService(manager, logging.NewNop())

	if err := svc.CreateMatch(t.Context(), testRealm, adminActor, "Final"); err != nil {
		t.Fatalf("create match: %v", err)
	}
	if err := svc.CreateMatch(t.Context(), testRealm, adminActor, "Final"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCatalogService_AddPlayersExtendsRosterAndPool(t *testing.T) {
	manager := newTestManager()
	svc := seedMatch(t, manager, "Final", "India", "Kohli", "Bumrah")

	if err := svc.AddPlayers(t.Context(), testRealm, adminActor, "Final", "India", []string{"Gill"}); err != nil {
		t.Fatalf("add players: %v", err)
	}

	match, err := svc.Match(t.Context(), testRealm, "Final")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(match.Teams["India"]) != 3 {
		t.Fatalf("expected 3 players in roster, got %v", match.Teams["India"])
	}
	if len(match.Players) != 3 {
		t.Fatalf("expected 3 players in pool, got %v", match.Players)
	}
}

func TestCatalogService_ResetTeamRosterClearsPool(t *testing.T) {
	manager := newTestManager()
	svc := seedMatch(t, manager, "Final", "India", "Kohli", "Bumrah")
	if err := svc.AddTeam(t.Context(), testRealm, adminActor, "Final", "Australia"); err != nil {
		t.Fatalf("add second team: %v", err)
	}
	if err := svc.AddPlayers(t.Context(), testRealm, adminActor, "Final", "Australia", []string{"Smith"}); err != nil {
		t.Fatalf("add players: %v", err)
	}

	removed, err := svc.ResetTeamRoster(t.Context(), testRealm, adminActor, "Final", "India")
	if err != nil {
		t.Fatalf("reset roster: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed players, got %v", removed)
	}

	match, err := svc.Match(t.Context(), testRealm, "Final")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if len(match.Teams["India"]) != 0 {
		t.Fatalf("expected empty roster, got %v", match.Teams["India"])
	}
	if len(match.Players) != 1 || match.Players[0] != "Smith" {
		t.Fatalf("expected pool to keep only Smith, got %v", match.Players)
	}
}

func TestCatalogService_RemoveMatchCascades(t *testing.T) {
	manager := newTestManager()
	seedMatch(t, manager, "Final", "India", "Kohli", "Bumrah", "Gill")

	squads := NewSquadService(manager, logging.NewNop())
	user := Actor{ID: "user-1"}
	if _, err := squads.CreateSquad(t.Context(), testRealm, user, "Final"); err != nil {
		t.Fatalf("create squad: %v", err)
	}
	if _, err := squads.SelectPlayer(t.Context(), testRealm, user, "Final", "Kohli"); err != nil {
		t.Fatalf("select player: %v", err)
	}

	catalogSvc := NewCatalogService(manager, logging.NewNop())
	if err := catalogSvc.RemoveMatch(t.Context(), testRealm, adminActor, "Final"); err != nil {
		t.Fatalf("remove match: %v", err)
	}

	doc, _, err := manager.Snapshot(t.Context(), testRealm)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(doc.Matches) != 0 {
		t.Fatalf("expected no matches, got %v", doc.Matches)
	}
	if len(doc.UserTeams["user-1"]) != 0 {
		t.Fatalf("expected squads for removed match to be gone, got %v", doc.UserTeams["user-1"])
	}

	if err := catalogSvc.RemoveMatch(t.Context(), testRealm, adminActor, "Final"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second removal, got %v", err)
	}
}

func TestCatalogService_LockRoundTrip(t *testing.T) {
	manager := newTestManager()
	svc := seedMatch(t, manager, "Final", "India", "Kohli")

	if err := svc.Lock(t.Context(), testRealm, adminActor, "Final"); err != nil {
		t.Fatalf("lock: %v", err)
	}
	match, err := svc.Match(t.Context(), testRealm, "Final")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if !match.Locked {
		t.Fatal("expected match to be locked")
	}

	if err := svc.Unlock(t.Context(), testRealm, adminActor, "Final"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	match, err = svc.Match(t.Context(), testRealm, "Final")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if match.Locked {
		t.Fatal("expected match to be unlocked")
	}
}

func TestCatalogService_ScheduleSortsByName(t *testing.T) {
	manager := newTestManager()
	svc := NewCatalogService(manager, logging.NewNop())
	for _, name := range []string{"Semi 2", "Final", "Semi 1"} {
		if err := svc.CreateMatch(t.Context(), testRealm, adminActor, name); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	schedule, err := svc.Schedule(t.Context(), testRealm)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	got := make([]string, 0, len(schedule))
	for _, entry := range schedule {
		got = append(got, entry.Name)
	}
	want := []string{"Final", "Semi 1", "Semi 2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected schedule order: %v", got)
		}
	}
}
