package game

import (
	"testing"

	"rps_arena/internal/domain"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		a, b domain.Move
		want domain.Outcome
	}{
		{domain.MoveRock, domain.MoveScissors, domain.OutcomeWin},
		{domain.MoveRock, domain.MovePaper, domain.OutcomeLose},
		{domain.MovePaper, domain.MoveRock, domain.OutcomeWin},
		{domain.MovePaper, domain.MoveScissors, domain.OutcomeLose},
		{domain.MoveScissors, domain.MovePaper, domain.OutcomeWin},
		{domain.MoveScissors, domain.MoveRock, domain.OutcomeLose},
		{domain.MoveRock, domain.MoveRock, domain.OutcomeTie},
		{domain.MovePaper, domain.MovePaper, domain.OutcomeTie},
		{domain.MoveScissors, domain.MoveScissors, domain.OutcomeTie},
	}

	for _, tc := range cases {
		if got := Resolve(tc.a, tc.b); got != tc.want {
			t.Fatalf("Resolve(%s,%s) = %s; want %s", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestResolveAntisymmetric(t *testing.T) {
	for _, a := range domain.Moves {
		for _, b := range domain.Moves {
			got := Resolve(a, b)
			mirror := Resolve(b, a)

			if a == b && got != domain.OutcomeTie {
				t.Fatalf("Resolve(%s,%s) = %s; want tie", a, b, got)
			}
			if got.Invert() != mirror {
				t.Fatalf("Resolve(%s,%s)=%s but Resolve(%s,%s)=%s", a, b, got, b, a, mirror)
			}
		}
	}
}

func TestRandomMoveIsLegal(t *testing.T) {
	for i := 0; i < 100; i++ {
		m := RandomMove()
		if m != domain.MoveRock && m != domain.MovePaper && m != domain.MoveScissors {
			t.Fatalf("RandomMove returned %q", m)
		}
	}
}
