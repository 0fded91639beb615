package activity

import "testing"

func TestScoreWeighting(t *testing.T) {
	if got := Score(10, 4); got != 12 {
		t.Fatalf("score = %v, want 12", got)
	}
	if got := Score(0, 0); got != 0 {
		t.Fatalf("score = %v, want 0", got)
	}
}

func TestBucketLadder(t *testing.T) {
	cases := []struct {
		score float64
		want  int
	}{
		{0, 0},
		{0.5, 0},
		{1, 1},
		{9, 1},
		{10, 2},
		{50, 3},
		{99, 3},
		{100, 4},
		{500, 5},
		{1000, 6},
		{5000, 7},
		{10000, 8},
		{50000, 9},
		{99999, 9},
		{100000, 10},
		{1e9, 10},
	}
	for _, c := range cases {
		if got := Bucket(c.score); got != c.want {
			t.Fatalf("bucket(%v) = %d, want %d", c.score, got, c.want)
		}
	}
}
