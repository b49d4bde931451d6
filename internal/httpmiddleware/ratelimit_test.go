package httpmiddleware

import "testing"

func TestTokenBucketExhaustion(t *testing.T) {
	l := NewSimpleTokenBucket(3, 3)
	for i := 0; i < 3; i++ {
		if !l.allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.allow("1.2.3.4") {
		t.Fatalf("bucket should be exhausted")
	}
	// Other clients are unaffected.
	if !l.allow("5.6.7.8") {
		t.Fatalf("separate client should have its own bucket")
	}
}

func TestTokenBucketDefaultsCapacity(t *testing.T) {
	l := NewSimpleTokenBucket(0, 10)
	if l.capacity != 10 {
		t.Fatalf("capacity should default to the per-minute rate, got %d", l.capacity)
	}
}
