package room

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

func newTestRegistry(t *testing.T) (*Registry, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	return NewRegistry(testConfig(), clock, &fakeBroadcaster{}, nil), clock
}

func TestCreateAndResolveRoom(t *testing.T) {
	reg, _ := newTestRegistry(t)

	engine, err := reg.CreateRoom()
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if len(engine.JoinCode()) != joinCodeLength {
		t.Errorf("join code %q, want %d characters", engine.JoinCode(), joinCodeLength)
	}

	byID, err := reg.Get(engine.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if byID != engine {
		t.Error("Get returned a different engine")
	}

	byCode, err := reg.GetByJoinCode(engine.JoinCode())
	if err != nil {
		t.Fatalf("GetByJoinCode: %v", err)
	}
	if byCode != engine {
		t.Error("GetByJoinCode returned a different engine")
	}
}

func TestResolveUnknownRoom(t *testing.T) {
	reg, _ := newTestRegistry(t)

	var re *Error
	if _, err := reg.Get(uuid.New()); !errors.As(err, &re) || re.Code != CodeRoomNotFound {
		t.Fatalf("Get unknown = %v, want ROOM_NOT_FOUND", err)
	}
	if _, err := reg.GetByJoinCode("NOSUCH"); !errors.As(err, &re) || re.Code != CodeRoomNotFound {
		t.Fatalf("GetByJoinCode unknown = %v, want ROOM_NOT_FOUND", err)
	}
}

func TestSweepRemovesRoomsEmptyPastGrace(t *testing.T) {
	reg, clock := newTestRegistry(t)

	neverJoined, err := reg.CreateRoom()
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	occupied, err := reg.CreateRoom()
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if _, err := occupied.Join("alice"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	// Inside the grace period nothing is removed.
	clock.Advance(4 * time.Minute)
	if removed := reg.Sweep(); removed != 0 {
		t.Fatalf("Sweep removed %d rooms within grace period", removed)
	}

	// Past the 300s grace only the never-joined room goes.
	clock.Advance(2 * time.Minute)
	if removed := reg.Sweep(); removed != 1 {
		t.Fatalf("Sweep removed %d rooms, want 1", removed)
	}
	if _, err := reg.Get(neverJoined.ID()); err == nil {
		t.Error("never-joined room should have been swept")
	}
	if _, err := reg.Get(occupied.ID()); err != nil {
		t.Errorf("occupied room should survive: %v", err)
	}

	// The occupied room empties out and eventually expires too.
	snap := occupied.Snapshot()
	occupied.Disconnect(uuid.MustParse(snap.Players[0].ID))
	clock.Advance(6 * time.Minute)
	if removed := reg.Sweep(); removed != 1 {
		t.Fatalf("Sweep removed %d rooms after room emptied, want 1", removed)
	}
	if reg.Count() != 0 {
		t.Errorf("room count = %d, want 0", reg.Count())
	}
}
