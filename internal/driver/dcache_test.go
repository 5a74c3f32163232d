package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"tycodec/internal/config"
	"tycodec/internal/output"
	"tycodec/internal/source"
)

func digest(b byte) Digest {
	var d Digest
	for i := range d {
		d[i] = b
	}
	return d
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	acc := output.New("u")
	acc.Printf(output.BucketPublic, "var x = 1\n")
	if err := c.Put(digest(1), &DiskPayload{Unit: "u", Output: acc.Snapshot()}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var got DiskPayload
	if hit, err := c.Get(digest(2), &got); err != nil || hit {
		t.Fatalf("expected miss on another key, hit=%v err=%v", hit, err)
	}
	hit, err := c.Get(digest(1), &got)
	if err != nil || !hit {
		t.Fatalf("expected hit, err=%v", err)
	}
	if got.Unit != "u" || got.Schema != cacheSchemaVersion {
		t.Fatalf("payload = %+v", got)
	}
	if got.Output.Restore().Text(output.BucketPublic) != "var x = 1\n" {
		t.Fatalf("snapshot text lost")
	}

	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if hit, _ := c.Get(digest(1), &got); hit {
		t.Fatalf("entry survived DropAll")
	}
	if err := c.Put(digest(1), &DiskPayload{Unit: "again"}); err != nil {
		t.Fatalf("Put after DropAll: %v", err)
	}
}

func TestDiskCacheRejectsIncompatibleSchema(t *testing.T) {
	c, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := c.pathFor(digest(7))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	data, err := msgpack.Marshal(&DiskPayload{Schema: "2.0.0", Unit: "future"})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatal(err)
	}
	var got DiskPayload
	if hit, err := c.Get(digest(7), &got); err != nil || hit {
		t.Fatalf("payload of schema 2.0.0 must miss, hit=%v err=%v", hit, err)
	}

	if err := os.WriteFile(p, []byte{0xc1}, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(digest(7), &got); err == nil {
		t.Fatalf("corrupt entry should report an error")
	}
}

func TestCompatibleSchema(t *testing.T) {
	tests := []struct {
		v    string
		want bool
	}{
		{cacheSchemaVersion, true},
		{"1.4.2", true},
		{"1.0.0", false},
		{"2.0.0", false},
		{"", false},
		{"soon", false},
	}
	for _, tt := range tests {
		if got := compatibleSchema(tt.v); got != tt.want {
			t.Errorf("compatibleSchema(%q) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestUnitKey(t *testing.T) {
	fs := source.NewFileSet()
	a := fs.AddVirtual("a.toml", []byte("x = 1"))
	b := fs.AddVirtual("b.toml", []byte("x = 2"))
	cfg := config.Default("/tmp/p")

	k1 := unitKey(cfg, fs, []source.FileID{a, b})
	if k1 != unitKey(cfg, fs, []source.FileID{a, b}) {
		t.Fatalf("unitKey is not deterministic")
	}
	if k1 == unitKey(cfg, fs, []source.FileID{b, a}) {
		t.Fatalf("file order must change the key")
	}
	other := *cfg
	other.MetainfoUnbound = true
	if k1 == unitKey(&other, fs, []source.FileID{a, b}) {
		t.Fatalf("config must change the key")
	}
	if combineDigest(digest(1)) == combineDigest(digest(1), digest(2)) {
		t.Fatalf("dependencies must change the digest")
	}
}
