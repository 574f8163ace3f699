package runtime

import "testing"

func TestPoolRentIncrementsActiveAllocationsOnSuccess(t *testing.T) {
	p := NewMemoryPool(1024)
	if err := p.Rent("a", 100); err != nil {
		t.Fatalf("Rent: %v", err)
	}
	if got := p.ActiveAllocations(); got != 1 {
		t.Fatalf("ActiveAllocations = %d, want 1", got)
	}
	if got := p.Rented(); got != 100 {
		t.Fatalf("Rented = %d, want 100", got)
	}
}

func TestPoolRentOverCapacityDoesNotIncrementActiveAllocations(t *testing.T) {
	p := NewMemoryPool(50)
	if err := p.Rent("a", 100); err == nil {
		t.Fatal("expected a capacity error")
	}
	if got := p.ActiveAllocations(); got != 0 {
		t.Fatalf("ActiveAllocations = %d, want 0 after a failed rent", got)
	}
}

func TestPoolReturnDecrementsActiveAllocations(t *testing.T) {
	p := NewMemoryPool(1024)
	p.Rent("a", 100)
	p.Return("a")
	if got := p.ActiveAllocations(); got != 0 {
		t.Fatalf("ActiveAllocations = %d, want 0", got)
	}
	if got := p.Available(); got != 1024 {
		t.Fatalf("Available = %d, want 1024", got)
	}
}

func TestPoolReturnOfUnknownHandleIsNoop(t *testing.T) {
	p := NewMemoryPool(1024)
	p.Return("never-rented")
	if got := p.ActiveAllocations(); got != 0 {
		t.Fatalf("ActiveAllocations = %d, want 0", got)
	}
}
