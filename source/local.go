package source

import "os"

// localFile wraps an *os.File to satisfy FileReader.
type localFile struct {
	f *os.File
}

// OpenLocal opens a local file for random-access reading.
func OpenLocal(path string) (FileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &localFile{f: f}, nil
}

func (l *localFile) ReadAt(p []byte, off int64) (int, error) {
	return l.f.ReadAt(p, off)
}

func (l *localFile) Size() (int64, error) {
	info, err := l.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (l *localFile) Close() error {
	return l.f.Close()
}
