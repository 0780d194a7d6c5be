package executor

import (
	"io"
	"os"
)

// MediaStream is the byte source handed to the response streamer. Size is
// -1 when the length is not known upfront (incremental pass-through).
type MediaStream struct {
	Reader      io.ReadCloser
	Size        int64
	ContentType string
}

func (s *MediaStream) Close() error {
	if s.Reader == nil {
		return nil
	}
	return s.Reader.Close()
}

// deleteOnCloseReader streams a temporary file and removes it once the
// response has been fully sent.
type deleteOnCloseReader struct {
	*os.File
}

func (r *deleteOnCloseReader) Close() error {
	path := r.File.Name()
	err := r.File.Close()
	_ = os.Remove(path)
	return err
}

// OpenBuffered returns a stream backed by an on-disk file produced by the
// fetch or merge step. The file is deleted when the stream is closed, so
// ownership of the path transfers to the returned stream.
func OpenBuffered(path, contentType string) (*MediaStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &MediaStream{
		Reader:      &deleteOnCloseReader{File: f},
		Size:        info.Size(),
		ContentType: contentType,
	}, nil
}

// Passthrough wraps an incrementally produced reader (subprocess stdout or
// an upstream HTTP body) whose total size may be unknown.
func Passthrough(r io.ReadCloser, size int64, contentType string) *MediaStream {
	return &MediaStream{Reader: r, Size: size, ContentType: contentType}
}
