package fetch

import "io"

// Progress receives transfer updates while an artifact downloads.
// totalSize is zero when the server did not report a length.
type Progress func(bytesSoFar, totalSize int64)

type countingReader struct {
	r        io.Reader
	read     int64
	total    int64
	progress Progress
}

func newCountingReader(r io.Reader, total int64, progress Progress) *countingReader {
	return &countingReader{r: r, total: total, progress: progress}
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.read += int64(n)
		if c.progress != nil {
			c.progress(c.read, c.total)
		}
	}
	return n, err
}
