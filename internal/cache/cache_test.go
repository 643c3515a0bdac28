package cache

import (
	"os"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	a := Key("openai", "text-embedding-3-small", "hello")
	b := Key("openai", "text-embedding-3-small", "hello")
	c := Key("ollama", "text-embedding-3-small", "hello")
	if a != b {
		t.Error("Expected identical parts to give identical keys")
	}
	if a == c {
		t.Error("Expected different provider to change the key")
	}
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("Expected part boundaries to matter")
	}
}

func TestVectorCodec(t *testing.T) {
	in := []float32{0.25, -1, 3.5}
	out, ok := DecodeVector(EncodeVector(in))
	if !ok {
		t.Fatal("Expected decode to succeed")
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("Expected %v at %d, got %v", in[i], i, out[i])
		}
	}
	if _, ok := DecodeVector([]byte{1, 2, 3}); ok {
		t.Error("Expected malformed value to fail")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	value := []byte("v")
	if err := c.Set("k", value, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value[0] = 'x'

	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Errorf("Expected stored copy \"v\", got %q (found=%v)", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss")
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d/%d", hits, misses)
	}

	_ = c.Set("short", []byte("s"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Error("Expected expired entry to miss")
	}

	_ = c.Clear()
	if c.Len() != 0 {
		t.Errorf("Expected empty cache after Clear, got %d", c.Len())
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := Key("openai", "m", "text")

	if err := c.Set(key, []byte("payload"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok := c.Get(key)
	if !ok || string(got) != "payload" {
		t.Errorf("Expected \"payload\", got %q (found=%v)", got, ok)
	}

	// Entries survive a new instance over the same directory
	again, ok := NewDiskCache(dir, time.Hour).Get(key)
	if !ok || string(again) != "payload" {
		t.Errorf("Expected persisted entry, got %q (found=%v)", again, ok)
	}

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, ok := c.Get(key); ok {
		t.Error("Expected expired entry to miss")
	}

	if err := c.Delete(key); err != nil {
		t.Errorf("Delete of a removed entry should not fail, got %v", err)
	}

	_ = c.Set("forever", []byte("x"), -1)
	c.now = func() time.Time { return time.Now().Add(100 * 365 * 24 * time.Hour) }
	if _, ok := c.Get("forever"); !ok {
		t.Error("Expected non-expiring entry to hit")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("Expected cache directory to be removed")
	}
}

func TestLayeredCache_Promotes(t *testing.T) {
	mem := NewMemoryCache(time.Minute, time.Minute)
	disk := NewDiskCache(t.TempDir(), time.Hour)
	l := NewLayers(mem, disk)

	_ = disk.Set("k", []byte("from-disk"), 0)
	got, ok := l.Get("k")
	if !ok || string(got) != "from-disk" {
		t.Fatalf("Expected disk hit, got %q (found=%v)", got, ok)
	}
	if _, ok := mem.Get("k"); !ok {
		t.Error("Expected disk hit to be promoted to memory")
	}

	memOnly := NewLayeredCache(time.Minute, "", 0)
	if err := memOnly.Set("a", []byte("b"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok := memOnly.Get("a"); !ok {
		t.Error("Expected memory-only layered cache to hit")
	}
}
