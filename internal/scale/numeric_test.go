package scale

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNumeric_ScaleLinear(t *testing.T) {
	s := NewNumeric(false)
	s.UpdateDomain(0, 100)
	s.UpdateRange(0, 500)

	assertClose(t, s.Scale(0), 0)
	assertClose(t, s.Scale(50), 250)
	assertClose(t, s.Scale(100), 500)
}

func TestNumeric_ScaleInverted(t *testing.T) {
	// Price scales are inverted: domain min maps to the bottom of the pane.
	s := NewNumeric(true)
	s.UpdateDomain(100, 200)
	s.UpdateRange(0, 400)

	assertClose(t, s.Scale(100), 400)
	assertClose(t, s.Scale(200), 0)
	assertClose(t, s.Scale(150), 200)
}

func TestNumeric_InvertRoundTrip(t *testing.T) {
	for _, inverted := range []bool{false, true} {
		s := NewNumeric(inverted)
		s.UpdateDomain(18500, 18700)
		s.UpdateRange(20, 680)

		for _, v := range []float64{18500, 18557.25, 18650, 18700} {
			assertClose(t, s.Invert(s.Scale(v)), v)
		}
	}
}

func TestNumeric_UpdateDomainNice(t *testing.T) {
	s := NewNumeric(true)
	s.UpdateDomainNice(18503, 18697, 5)

	min, max := s.Domain()
	if min > 18503 {
		t.Errorf("nice min %v must not exceed raw min", min)
	}
	if max < 18697 {
		t.Errorf("nice max %v must not fall below raw max", max)
	}

	ticks := s.Ticks(5)
	if len(ticks) == 0 {
		t.Fatal("expected ticks on a nice domain")
	}
	// Every tick is a multiple of the spacing and inside the domain.
	spacing := ticks[1] - ticks[0]
	for i := 1; i < len(ticks); i++ {
		assertClose(t, ticks[i]-ticks[i-1], spacing)
	}
	if ticks[0] < min || ticks[len(ticks)-1] > max+spacing*1e-9 {
		t.Errorf("ticks [%v, %v] escape domain [%v, %v]",
			ticks[0], ticks[len(ticks)-1], min, max)
	}
}

func TestNumeric_DegenerateDomainNice(t *testing.T) {
	s := NewNumeric(true)
	s.UpdateDomainNice(42, 42, 5)

	min, max := s.Domain()
	if !(min < 42 && max > 42) {
		t.Fatalf("degenerate span must widen: got [%v, %v]", min, max)
	}
	if len(s.Ticks(5)) == 0 {
		t.Error("expected ticks after degenerate-span widening")
	}
}

func TestNumeric_TicksGuards(t *testing.T) {
	s := NewNumeric(false)

	s.UpdateDomain(math.NaN(), 10)
	if got := s.Ticks(5); got != nil {
		t.Errorf("NaN domain: expected nil ticks, got %v", got)
	}

	s.UpdateDomain(10, 10)
	if got := s.Ticks(5); got != nil {
		t.Errorf("zero span: expected nil ticks, got %v", got)
	}

	s.UpdateDomain(10, math.Inf(1))
	if got := s.Ticks(5); got != nil {
		t.Errorf("inf domain: expected nil ticks, got %v", got)
	}
}

func TestNumeric_VersionBumps(t *testing.T) {
	s := NewNumeric(false)
	v0 := s.Version()
	s.UpdateDomain(0, 1)
	s.UpdateRange(0, 100)
	s.UpdateDomainNice(0, 1, 5)
	if s.Version() != v0+3 {
		t.Fatalf("expected 3 version bumps, got %d", s.Version()-v0)
	}
}

func TestNiceNum(t *testing.T) {
	cases := []struct {
		in    float64
		round bool
		want  float64
	}{
		{1, true, 1},
		{1.4, true, 1},
		{2.5, true, 2},
		{5, true, 5},
		{8, true, 10},
		{0.034, true, 0.05},
		{1, false, 1},
		{1.1, false, 2},
		{4.2, false, 5},
		{7, false, 10},
		{130, false, 200},
	}
	for _, tc := range cases {
		got := niceNum(tc.in, tc.round)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("niceNum(%v, %v) = %v, want %v", tc.in, tc.round, got, tc.want)
		}
	}
}
