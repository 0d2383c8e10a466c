package buffer

import "testing"

func TestPool_GetReturnsFullSize(t *testing.T) {
	p := NewPool(64)
	b := p.Get()
	if len(b) != 64 {
		t.Fatalf("len = %d, want 64", len(b))
	}

	p.Put(b[:10])
	if got := p.Get(); len(got) != 64 {
		t.Errorf("len after reslice = %d, want 64", len(got))
	}
}

func TestPool_DropsSmallBuffers(t *testing.T) {
	p := NewPool(64)
	p.Put(make([]byte, 8))
	if got := p.Get(); len(got) != 64 {
		t.Errorf("len = %d, want 64", len(got))
	}
}

func TestDefault(t *testing.T) {
	b := Get()
	defer Put(b)
	if len(b) != DefaultSize {
		t.Errorf("len = %d, want %d", len(b), DefaultSize)
	}
}
