package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/netdraw/internal/config"
	"github.com/matzehuels/netdraw/pkg/cache"
)

func TestCacheClearCommand(t *testing.T) {
	dir := testEnv(t)
	cacheRoot := filepath.Join(dir, "cache", appName)

	fc, err := cache.NewFileCache(cacheRoot)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, k := range []string{"a", "b"} {
		if err := fc.Set(ctx, k, []byte(k), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	if err := execute(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := fc.Get(ctx, "a"); hit {
		t.Error("entry survived cache clear")
	}
}

func TestCacheClearEmpty(t *testing.T) {
	testEnv(t)
	if err := execute(t, "cache", "clear"); err != nil {
		t.Errorf("clearing a missing cache should succeed: %v", err)
	}
}

func TestFileCacheDirFromConfig(t *testing.T) {
	dir := testEnv(t)
	custom := filepath.Join(dir, "elsewhere")
	cfgPath := filepath.Join(dir, "netdraw.toml")
	if err := os.WriteFile(cfgPath, []byte("[cache]\ndir = \""+filepath.ToSlash(custom)+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvConfig, cfgPath)

	c := New(os.Stderr, LogInfo)
	got, err := c.fileCacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.ToSlash(custom) {
		t.Errorf("fileCacheDir = %q, want %q", got, custom)
	}
}

func TestKeyerFor(t *testing.T) {
	tests := []struct {
		backend string
		noCache bool
		scoped  bool
	}{
		{config.CacheFile, false, false},
		{config.CacheNone, false, false},
		{config.CacheRedis, false, true},
		{config.CacheRedis, true, false},
	}
	for _, tt := range tests {
		cfg := &config.Config{Cache: config.CacheConfig{Backend: tt.backend}}
		k := keyerFor(cfg, tt.noCache)
		if !tt.scoped {
			if k != nil {
				t.Errorf("keyerFor(%s, %v) = %T, want nil", tt.backend, tt.noCache, k)
			}
			continue
		}
		if k == nil {
			t.Fatalf("keyerFor(%s) = nil, want a scoped keyer", tt.backend)
		}
		if got := k.ImportKey("h"); got != "netdraw:import:h" {
			t.Errorf("ImportKey() = %s, want netdraw:import:h", got)
		}
	}
}
