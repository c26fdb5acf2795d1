package profile

import (
	"os"
	"strings"
	"testing"
)

func TestPathsNestUnderProfileDir(t *testing.T) {
	dir := Dir("work")
	for name, path := range map[string]string{
		"db":     DBPath("work"),
		"config": ConfigPath("work"),
		"lock":   LockPath("work"),
		"log":    LogPath("work"),
	} {
		if !strings.HasPrefix(path, dir) {
			t.Errorf("%s path %q not under profile dir %q", name, path, dir)
		}
	}
}

func TestEnsureDir(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	if err := EnsureDir("test"); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	info, err := os.Stat(LogDir("test"))
	if err != nil {
		t.Fatalf("stat log dir: %v", err)
	}
	if !info.IsDir() {
		t.Error("log dir is not a directory")
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("log dir permission = %o, want 0700", perm)
	}
}
