package torrent

import "path/filepath"

// File is one entry of the file layout. Path holds the segments from the
// descriptor, never a joined string.
type File struct {
	Path   []string
	Length int64
}

// Join returns the on-disk location of f below dir.
func (f File) Join(dir string) string {
	return filepath.Join(append([]string{dir}, f.Path...)...)
}

// Files returns info.files, or a single entry built from info.name and
// info.length for single-file torrents.
func (t *Torrent) Files() ([]File, error) {
	info := t.info()
	files := info.Get("files")
	if files == nil {
		name, ok := info.Get("name").Text()
		if !ok {
			return nil, structural("info.name is missing")
		}
		length, ok := info.Get("length").Int()
		if !ok || length < 0 {
			return nil, structural("info.length is missing")
		}
		return []File{{Path: []string{name}, Length: length}}, nil
	}
	if files.Kind() != KindSequence {
		return nil, structural("info.files is a %s", files.Kind())
	}

	out := make([]File, 0, files.Len())
	for i := 0; i < files.Len(); i++ {
		entry := files.Index(i)
		length, ok := entry.Get("length").Int()
		if !ok || length < 0 {
			return nil, structural("info.files.%d has no length", i)
		}
		segments := entry.Get("path")
		if segments.Kind() != KindSequence || segments.Len() == 0 {
			return nil, structural("info.files.%d has no path", i)
		}
		path := make([]string, segments.Len())
		for j := range path {
			s, ok := segments.Index(j).Text()
			if !ok {
				return nil, structural("info.files.%d.path.%d is not text", i, j)
			}
			path[j] = s
		}
		out = append(out, File{Path: path, Length: length})
	}
	return out, nil
}

func (t *Torrent) TotalLength() (int64, error) {
	files, err := t.Files()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, f := range files {
		total += f.Length
	}
	return total, nil
}
