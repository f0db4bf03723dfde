// SPDX-License-Identifier: GPL-2.0-or-later

package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadParams(t *testing.T) {
	in := "title=x\nparam=2=http://example.com/\nparam=25=231\nparam=bad=1\n"
	p, err := ReadParams(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Could not read params: %v", err)
	}
	if p[2] != "http://example.com/" {
		t.Errorf("param 2 = %q", p[2])
	}
	if p[ParamRevision] != "231" {
		t.Errorf("param 25 = %q", p[ParamRevision])
	}
	if len(p) != 2 {
		t.Errorf("len(params) = %v", len(p))
	}
}

func TestLocate(t *testing.T) {
	root := t.TempDir()
	if _, err := Locate(root); err == nil {
		t.Errorf("Locate on empty dir should fail")
	}
	cd := filepath.Join(root, "cache")
	if err := os.Mkdir(cd, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{
		filepath.Join(cd, "main_file_cache.dat2"),
		filepath.Join(root, "xteas.json"),
		filepath.Join(cd, "params.txt"),
	} {
		if err := os.WriteFile(f, []byte("param=25=215\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	l, err := Locate(root)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if l.CacheDir != cd {
		t.Errorf("CacheDir = %v, want %v", l.CacheDir, cd)
	}
	if l.Keys != filepath.Join(root, "xteas.json") {
		t.Errorf("Keys = %v", l.Keys)
	}
	rev, ok := l.Revision()
	if !ok || rev != 215 {
		t.Errorf("Revision() = %v, %v", rev, ok)
	}
}
