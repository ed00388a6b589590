package memory

import (
	"bytes"
	"testing"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

func TestSetGet(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	c.Set("k", []byte("v"), time.Minute)

	got, ok := c.Get("k")
	if !ok || !bytes.Equal(got, []byte("v")) {
		t.Fatalf("get = %q, %v", got, ok)
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatalf("deleted key still present")
	}
}

func TestAdd_FirstWriterWins(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)
	if !c.Add("k", []byte("first"), time.Minute) {
		t.Fatalf("first add refused")
	}
	if c.Add("k", []byte("second"), time.Minute) {
		t.Fatalf("second add accepted")
	}
	got, _ := c.Get("k")
	if !bytes.Equal(got, []byte("first")) {
		t.Fatalf("value = %q, want the first writer's", got)
	}
}

func TestGet_ForeignValueIsAMiss(t *testing.T) {
	t.Parallel()

	m := &Mem{c: gocache.New(time.Minute, time.Minute)}
	m.c.Set("k", "not-bytes", time.Minute)

	// A value this cache did not write must not surface as a nil hit.
	if v, ok := m.Get("k"); ok || v != nil {
		t.Fatalf("get = %q, %v, want a miss", v, ok)
	}
}
