package mirror

import (
	"archive/zip"
	"bytes"
	"sort"
	"strings"
)

// ExportZip archives the mirror's current files into a zip, the download
// the editor offers for the whole workspace. Entries are sorted and
// folder entries included so empty folders survive the round trip.
func (m *Mirror) ExportZip() ([]byte, error) {
	m.mu.RLock()
	paths := make([]string, 0, len(m.files))
	for path := range m.files {
		paths = append(paths, path)
	}
	folders := make([]string, 0, len(m.folders))
	for folder := range m.folders {
		folders = append(folders, folder)
	}
	contents := make(map[string]string, len(paths))
	for _, path := range paths {
		contents[path] = m.files[path].Content
	}
	m.mu.RUnlock()

	sort.Strings(paths)
	sort.Strings(folders)

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	for _, folder := range folders {
		name := strings.TrimSuffix(folder, "/") + "/"
		if _, err := zw.Create(name); err != nil {
			zw.Close()
			return nil, err
		}
	}
	for _, path := range paths {
		w, err := zw.Create(path)
		if err != nil {
			zw.Close()
			return nil, err
		}
		if _, err := w.Write([]byte(contents[path])); err != nil {
			zw.Close()
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
