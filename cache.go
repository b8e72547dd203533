package main

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/phobologic/ctxbundle/internal/config"
	"github.com/phobologic/ctxbundle/internal/discover"
)

const cacheMagic = "ctxbundle-cache"

// cacheKey identifies the inputs of a run: the version, the effective
// configuration and the planned file set. Content changes are caught by
// cacheIsFresh instead.
func cacheKey(cfg *config.Config, entries []discover.FileEntry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n%+v\n", version, *cfg)
	for _, e := range entries {
		fmt.Fprintln(h, e.Path)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// cacheIsFresh reports whether every entry was modified before the cache.
func cacheIsFresh(cachePath string, entries []discover.FileEntry) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, e := range entries {
		fi, err := os.Stat(e.AbsPath)
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}

// readCache returns the cached output when the cache is fresh and was
// written for key.
func readCache(cachePath, key string, entries []discover.FileEntry) (string, bool) {
	if !cacheIsFresh(cachePath, entries) {
		return "", false
	}
	f, err := os.Open(cachePath)
	if err != nil {
		return "", false
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return "", false
	}
	defer dec.Close()

	r := bufio.NewReader(dec)
	header, err := r.ReadString('\n')
	if err != nil || strings.TrimSuffix(header, "\n") != cacheMagic+" "+key {
		return "", false
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", false
	}
	return string(body), true
}

// writeCache stores output zstd-compressed behind a header carrying key.
func writeCache(cachePath, key, output string) error {
	f, err := os.Create(cachePath)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return err
	}
	if _, err := io.WriteString(enc, cacheMagic+" "+key+"\n"+output); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
