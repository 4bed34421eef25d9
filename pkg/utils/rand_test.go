package utils

import "testing"

func TestNewRandSource(t *testing.T) {
	if NewRandSource(12345) == nil {
		t.Fatal("Expected RandSource to be created")
	}
	if NewRandSource(0) == nil {
		t.Fatal("Expected RandSource to be created with zero seed")
	}
}

func TestRandSourceDeterministic(t *testing.T) {
	a := NewRandSource(42)
	b := NewRandSource(42)
	for i := 0; i < 50; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("draw %d differs between equally seeded sources", i)
		}
	}
}

func TestRandSourceIntRange(t *testing.T) {
	rng := NewRandSource(12345)
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		v := rng.IntRange(0, 8)
		if v < 0 || v > 8 {
			t.Fatalf("IntRange(0, 8) returned %d", v)
		}
		seen[v] = true
	}
	if !seen[0] || !seen[8] {
		t.Errorf("expected both bounds to be reachable, saw %v", seen)
	}
	if got := rng.IntRange(5, 5); got != 5 {
		t.Errorf("IntRange(5, 5) = %d, want 5", got)
	}
	if got := rng.IntRange(5, 3); got != 5 {
		t.Errorf("IntRange(5, 3) = %d, want 5", got)
	}
}

func TestRandSourceUniformFloat64(t *testing.T) {
	rng := NewRandSource(12345)
	for i := 0; i < 1000; i++ {
		v := rng.UniformFloat64(4.9, 5.1)
		if v < 4.9 || v >= 5.1 {
			t.Fatalf("UniformFloat64(4.9, 5.1) returned %f", v)
		}
	}
	if got := rng.UniformFloat64(3, 3); got != 3 {
		t.Errorf("degenerate interval returned %f", got)
	}
}

func TestRandSourceBernoulliBool(t *testing.T) {
	rng := NewRandSource(12345)
	if rng.BernoulliBool(0) {
		t.Error("BernoulliBool(0) returned true")
	}
	if !rng.BernoulliBool(1) {
		t.Error("BernoulliBool(1) returned false")
	}
}
