package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDisk_PutGet(t *testing.T) {
	d, err := New(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sig := Signature{Kind: "search", Query: "golang", Limit: 10}
	payload := []byte(`{"ids":["a","b"]}`)

	if _, ok := d.Get(sig); ok {
		t.Error("Get() before Put() = hit, want miss")
	}

	d.Put(sig, payload)

	got, ok := d.Get(sig)
	if !ok {
		t.Fatal("Get() after Put() = miss, want hit")
	}
	if string(got) != string(payload) {
		t.Errorf("Get() = %q, want %q", got, payload)
	}
}

func TestDisk_ExpiredEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	d, err := New(dir, time.Hour)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sig := Signature{Kind: "details", IDs: []string{"v1"}}
	d.Put(sig, []byte("payload"))

	// Age the entry past the TTL by backdating its mtime.
	p := filepath.Join(dir, "details_"+sig.Key()+".json")
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(p, old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	if _, ok := d.Get(sig); ok {
		t.Error("Get() on expired entry = hit, want miss")
	}
}

func TestDisk_EntryAtExactTTLIsMiss(t *testing.T) {
	dir := t.TempDir()
	ttl := time.Minute
	d, err := New(dir, ttl)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sig := Signature{Kind: "comments", IDs: []string{"v1"}, Limit: 100}
	d.Put(sig, []byte("payload"))

	p := filepath.Join(dir, "comments_"+sig.Key()+".json")
	boundary := time.Now().Add(-ttl)
	if err := os.Chtimes(p, boundary, boundary); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	// Age equal to TTL is already stale.
	if _, ok := d.Get(sig); ok {
		t.Error("Get() at exact TTL age = hit, want miss")
	}
}

func TestDisk_EntryJustUnderTTLIsHit(t *testing.T) {
	dir := t.TempDir()
	ttl := time.Minute
	d, err := New(dir, ttl)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sig := Signature{Kind: "captions", IDs: []string{"v1"}}
	d.Put(sig, []byte("payload"))

	p := filepath.Join(dir, "captions_"+sig.Key()+".json")
	almost := time.Now().Add(-ttl + 5*time.Second)
	if err := os.Chtimes(p, almost, almost); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	if _, ok := d.Get(sig); !ok {
		t.Error("Get() just under TTL = miss, want hit")
	}
}

func TestDisk_PutSupersedesStaleEntry(t *testing.T) {
	dir := t.TempDir()
	d, err := New(dir, time.Hour)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sig := Signature{Kind: "search", Query: "rust"}
	d.Put(sig, []byte("old"))

	p := filepath.Join(dir, "search_"+sig.Key()+".json")
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(p, old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	d.Put(sig, []byte("new"))

	got, ok := d.Get(sig)
	if !ok {
		t.Fatal("Get() after refresh = miss, want hit")
	}
	if string(got) != "new" {
		t.Errorf("Get() = %q, want %q", got, "new")
	}
}

// Identical logical requests must share one cache entry regardless of
// the order the ids were listed in.
func TestProperty_SignatureKeyOrderInsensitive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	idGen := gen.RegexMatch(`[a-zA-Z0-9_-]{11}`)

	properties.Property("reversed id list produces the same key", prop.ForAll(
		func(ids []string) bool {
			reversed := make([]string, len(ids))
			for i, id := range ids {
				reversed[len(ids)-1-i] = id
			}
			a := Signature{Kind: "details", IDs: ids}
			b := Signature{Kind: "details", IDs: reversed}
			return a.Key() == b.Key()
		},
		gen.SliceOf(idGen),
	))

	properties.Property("different kinds never collide", prop.ForAll(
		func(ids []string) bool {
			a := Signature{Kind: "details", IDs: ids}
			b := Signature{Kind: "comments", IDs: ids}
			return a.Key() != b.Key()
		},
		gen.SliceOf(idGen),
	))

	properties.TestingRun(t)
}

func TestSignature_KeyDistinguishesFields(t *testing.T) {
	base := Signature{Kind: "search", Query: "go concurrency", Limit: 10}

	tests := []struct {
		name  string
		other Signature
	}{
		{"different query", Signature{Kind: "search", Query: "go parallelism", Limit: 10}},
		{"different limit", Signature{Kind: "search", Query: "go concurrency", Limit: 20}},
		{"different kind", Signature{Kind: "details", Query: "go concurrency", Limit: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if base.Key() == tt.other.Key() {
				t.Errorf("Key() collision between %+v and %+v", base, tt.other)
			}
		})
	}
}
