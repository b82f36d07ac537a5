// Package fetchcache downloads remote documents once and serves them from a
// local cache directory afterwards.
package fetchcache

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("file not found on server")

type progressWriter struct {
	io.Writer
	total uint64
	last  uint64
	label string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.total += uint64(n)
	if pw.total-pw.last > 5*1024*1024 { // Log every 5MB
		log.Printf("%s: Downloaded %d MB", pw.label, pw.total/1024/1024)
		pw.last = pw.total
	}
	return n, err
}

// Download fetches a URL to a local path, writing through a temp file in
// the same directory so the final rename is atomic.
func Download(url, path string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Error closing response body: %v", err)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	defer func() {
		if err := os.Remove(tmpName); err != nil && !os.IsNotExist(err) {
			log.Printf("Error removing temp file %s: %v", tmpName, err)
		}
	}()

	pw := &progressWriter{Writer: tmpFile, label: filepath.Base(path)}
	if _, err := io.Copy(pw, resp.Body); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// CacheFileName derives the local cache filename for a URL, prefixed with a
// sanitized label so different consumers of the same basename don't collide.
func CacheFileName(url, label string) string {
	urlParts := strings.Split(url, "/")
	fileName := urlParts[len(urlParts)-1]
	if fileName == "" {
		fileName = "index"
	}
	sanitized := strings.Trim(label, "[]")
	sanitized = strings.ReplaceAll(sanitized, " ", "_")
	if sanitized != "" {
		fileName = sanitized + "_" + fileName
	}
	return fileName
}

// Open returns a reader for the URL, downloading into cacheDir on first use
// and reading the cached copy afterwards. An empty cacheDir streams the
// response directly.
func Open(url, cacheDir, label string) (io.ReadCloser, error) {
	if cacheDir != "" {
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache dir: %w", err)
		}
		localPath := filepath.Join(cacheDir, CacheFileName(url, label))
		if _, err := os.Stat(localPath); os.IsNotExist(err) {
			log.Printf("%s Downloading %s", label, url)
			if err := Download(url, localPath); err != nil {
				return nil, err
			}
		} else {
			log.Printf("%s Using cached file: %s", label, localPath)
		}
		f, err := os.Open(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		return f, nil
	}

	log.Printf("%s Streaming from %s", label, url)
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Error closing response body: %v", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	return resp.Body, nil
}
