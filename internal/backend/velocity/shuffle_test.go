package velocity

import "testing"

func TestShuffle64Broadcast(t *testing.T) {
	lanes := []uint64{10, 20, 30, 40}
	out := Shuffle64(lanes, ShuffleBroadcast, 2)
	for i, v := range out {
		if v != 30 {
			t.Fatalf("lane %d: got %d, want 30 (broadcast of lane 2)", i, v)
		}
	}
}

func TestShuffle64XorIsSelfInverse(t *testing.T) {
	lanes := []uint64{1, 2, 3, 4, 5, 6, 7, 8}
	once := Shuffle64(lanes, ShuffleXor, 3)
	twice := Shuffle64(once, ShuffleXor, 3)
	for i := range lanes {
		if twice[i] != lanes[i] {
			t.Fatalf("lane %d: xor-shuffle twice with same mask did not round-trip: got %d, want %d", i, twice[i], lanes[i])
		}
	}
}

func TestShuffle64DownReadsFromHigherLane(t *testing.T) {
	lanes := []uint64{100, 200, 300, 400}
	out := Shuffle64(lanes, ShuffleDown, 1)
	want := []uint64{200, 300, 400, 400} // last lane clamps to itself
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("lane %d: got %d, want %d", i, out[i], want[i])
		}
	}
}

func TestShuffle64UpReadsFromLowerLane(t *testing.T) {
	lanes := []uint64{100, 200, 300, 400}
	out := Shuffle64(lanes, ShuffleUp, 1)
	want := []uint64{100, 100, 200, 300} // first lane clamps to itself
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("lane %d: got %d, want %d", i, out[i], want[i])
		}
	}
}

func TestShuffle64SplitsAndRecombinesBothHalves(t *testing.T) {
	// A value with distinct, recognizable bit patterns in each 32-bit
	// half catches a decomposition bug that swaps or drops a half.
	lanes := []uint64{0xAAAAAAAA_11111111, 0xBBBBBBBB_22222222}
	out := Shuffle64(lanes, ShuffleBroadcast, 1)
	want := uint64(0xBBBBBBBB_22222222)
	for i, v := range out {
		if v != want {
			t.Fatalf("lane %d: got %#x, want %#x", i, v, want)
		}
	}
}

func TestShuffleFloat32RoundTripsThroughBits(t *testing.T) {
	lanes := []float32{1.5, 2.5, 3.5, 4.5}
	out := ShuffleFloat32(lanes, ShuffleBroadcast, 3)
	for i, v := range out {
		if v != 4.5 {
			t.Fatalf("lane %d: got %v, want 4.5", i, v)
		}
	}
}

func TestShuffleFloat64RoundTripsThroughBits(t *testing.T) {
	lanes := []float64{1.25, 2.25, 3.25, 4.25}
	out := ShuffleFloat64(lanes, ShuffleXor, 1)
	want := []float64{2.25, 1.25, 4.25, 3.25}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("lane %d: got %v, want %v", i, out[i], want[i])
		}
	}
}

func TestShuffleOutOfRangeClampsToCallingLane(t *testing.T) {
	lanes := []uint32{7, 8, 9}
	out := shuffle32(lanes, ShuffleBroadcast, 10)
	for i, v := range out {
		if v != lanes[i] {
			t.Fatalf("lane %d: out-of-range broadcast should clamp to own value, got %d want %d", i, v, lanes[i])
		}
	}
}
