package features

import "testing"

func TestStep_Transitions(t *testing.T) {
	c := Stats{Minutes: 90, TotalPoints: 6}
	p := Stats{Minutes: 60, TotalPoints: 2, YellowCards: 1, Cards: 1}

	t.Run("no history, absent", func(t *testing.T) {
		next, _, emit := Step(Accumulator{}, Stats{}, false)
		if emit {
			t.Error("expected no emission")
		}
		if next.HasHistory() {
			t.Error("expected no history")
		}
	})

	t.Run("no history, present", func(t *testing.T) {
		next, got, emit := Step(Accumulator{}, c, true)
		if !emit || got != c {
			t.Errorf("want emit %+v, got emit=%v %+v", c, emit, got)
		}
		if !next.HasHistory() || next.Total() != c {
			t.Errorf("unexpected state %+v", next)
		}
	})

	t.Run("history, absent carries forward", func(t *testing.T) {
		start := Accumulator{started: true, total: p}
		next, got, emit := Step(start, Stats{}, false)
		if !emit || got != p {
			t.Errorf("want emit %+v, got emit=%v %+v", p, emit, got)
		}
		if next != start {
			t.Errorf("state changed: %+v", next)
		}
	})

	t.Run("history, present sums", func(t *testing.T) {
		start := Accumulator{started: true, total: p}
		next, got, emit := Step(start, c, true)
		want := p.Add(c)
		if !emit || got != want {
			t.Errorf("want emit %+v, got emit=%v %+v", want, emit, got)
		}
		if next.Total() != want {
			t.Errorf("state total: want %+v, got %+v", want, next.Total())
		}
		if start.Total() != p {
			t.Error("previous state mutated")
		}
	})
}
