package conf

import (
	"io"
	"os"
	"strings"
)

// NewEnvExpandedReader wraps a reader and expands ${VAR} references with
// the process environment, so that secrets can stay out of config.yaml.
func NewEnvExpandedReader(r io.Reader) io.Reader {
	return &envExpandedReader{src: r}
}

type envExpandedReader struct {
	src      io.Reader
	expanded io.Reader
}

func (r *envExpandedReader) Read(p []byte) (int, error) {
	if r.expanded == nil {
		raw, err := io.ReadAll(r.src)
		if err != nil {
			return 0, err
		}

		r.expanded = strings.NewReader(os.Expand(string(raw), os.Getenv))
	}

	return r.expanded.Read(p)
}
