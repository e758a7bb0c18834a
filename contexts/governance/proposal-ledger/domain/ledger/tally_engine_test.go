package ledger

import (
	"errors"
	"reflect"
	"testing"
	"time"

	domainerrors "agora/contexts/governance/proposal-ledger/domain/errors"
)

func TestTallyEngineWinnersAndDraws(t *testing.T) {
	cases := []struct {
		name    string
		votes   map[string]int
		winners []string
		isDraw  bool
	}{
		{name: "no votes", votes: map[string]int{}, winners: []string{}, isDraw: false},
		{name: "single winner", votes: map[string]int{"b": 2, "c": 1}, winners: []string{"b"}, isDraw: false},
		{name: "tie keeps declaration order", votes: map[string]int{"c": 2, "a": 2, "b": 1}, winners: []string{"a", "c"}, isDraw: true},
		{name: "all tied", votes: map[string]int{"a": 1, "b": 1, "c": 1}, winners: []string{"a", "b", "c"}, isDraw: true},
	}
	options := []string{"a", "b", "c"}
	for _, tc := range cases {
		engine := NewTallyEngine()
		for option, n := range tc.votes {
			for i := 0; i < n; i++ {
				engine.Increment(1, option)
			}
		}
		result := engine.Tally(1, options)
		if !reflect.DeepEqual(result.Winners, tc.winners) {
			t.Fatalf("%s: expected winners %v, got %v", tc.name, tc.winners, result.Winners)
		}
		if result.IsDraw != tc.isDraw {
			t.Fatalf("%s: expected draw=%v, got %v", tc.name, tc.isDraw, result.IsDraw)
		}
	}
}

func TestTallyEngineDecrementUnderflow(t *testing.T) {
	engine := NewTallyEngine()
	if err := engine.Decrement(1, "a"); !errors.Is(err, domainerrors.ErrTallyUnderflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
	engine.Increment(1, "a")
	if err := engine.Decrement(1, "a"); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if engine.Count(1, "a") != 0 {
		t.Fatalf("expected count 0, got %d", engine.Count(1, "a"))
	}
}

func TestTallyEngineFinalizeIsCachedOnce(t *testing.T) {
	engine := NewTallyEngine()
	engine.Increment(1, "a")
	first := engine.Finalize(1, []string{"a", "b"}, time.Unix(100, 0))
	engine.Increment(1, "b")
	engine.Increment(1, "b")
	second := engine.Finalize(1, []string{"a", "b"}, time.Unix(200, 0))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected cached result %+v, got %+v", first, second)
	}
	if len(second.Winners) != 1 || second.Winners[0] != "a" {
		t.Fatalf("expected sealed winner a, got %v", second.Winners)
	}
}
