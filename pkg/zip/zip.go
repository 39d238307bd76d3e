// Package zip bundles a set of named files into a single archive, used for
// the download-everything endpoint.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
)

type Entry struct {
	Filename string
	Data     []byte
}

// Archive writes all entries into one zip. Duplicate filenames get a numeric
// suffix so every entry survives extraction.
func Archive(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]int, len(entries))

	for _, entry := range entries {
		name := entry.Filename
		if n := seen[name]; n > 0 {
			name = numberedName(name, n)
		}
		seen[entry.Filename]++

		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", name, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close archive: %w", err)
	}
	return buf.Bytes(), nil
}

func numberedName(name string, n int) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return fmt.Sprintf("%s-%d%s", name[:i], n, name[i:])
		}
		if name[i] == '/' {
			break
		}
	}
	return fmt.Sprintf("%s-%d", name, n)
}
