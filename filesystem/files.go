// SPDX-License-Identifier: GPL-2.0-or-later

package filesystem

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	dataFile   = "main_file_cache.dat2"
	keysFile   = "xteas.json"
	paramsFile = "params.txt"

	// ParamRevision holds the cache revision starting with rev 209.
	ParamRevision = 25
)

// Layout locates the files of one cache installation. The archive files
// live either directly in Root or in Root/cache.
type Layout struct {
	Root     string
	CacheDir string
	Keys     string
	Params   string
}

// Locate finds the cache files below root.
func Locate(root string) (*Layout, error) {
	l := &Layout{Root: root}
	for _, d := range []string{filepath.Join(root, "cache"), root} {
		if exists(filepath.Join(d, dataFile)) {
			l.CacheDir = d
			break
		}
	}
	if l.CacheDir == "" {
		return nil, &os.PathError{Op: "locate", Path: filepath.Join(root, dataFile), Err: os.ErrNotExist}
	}
	for _, d := range []string{root, l.CacheDir} {
		if p := filepath.Join(d, keysFile); exists(p) {
			l.Keys = p
			break
		}
	}
	for _, d := range []string{root, l.CacheDir} {
		if p := filepath.Join(d, paramsFile); exists(p) {
			l.Params = p
			break
		}
	}
	return l, nil
}

func exists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

// Revision reads the cache revision from params.txt if there is one.
func (l *Layout) Revision() (int, bool) {
	if l.Params == "" {
		return 0, false
	}
	f, err := os.Open(l.Params)
	if err != nil {
		return 0, false
	}
	defer f.Close()
	p, err := ReadParams(f)
	if err != nil {
		return 0, false
	}
	rev, err := strconv.Atoi(strings.TrimSpace(p[ParamRevision]))
	if err != nil {
		return 0, false
	}
	return rev, true
}

// ReadParams parses "param=<id>=<value>" lines. Other lines are ignored.
func ReadParams(r io.Reader) (map[int]string, error) {
	params := make(map[int]string)
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		i := strings.Index(line, "param=")
		if i < 0 {
			continue
		}
		rest := line[i+len("param="):]
		id, value, ok := strings.Cut(rest, "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(id)
		if err != nil {
			continue
		}
		params[n] = value
	}
	return params, s.Err()
}
