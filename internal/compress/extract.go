package compress

import (
	"fmt"
	"io"
	"os"
)

// Extracted is a random-access view of a possibly compressed file.
type Extracted struct {
	// Path is the file to read: the original for plain files, otherwise
	// a temporary decompressed copy.
	Path string

	// Codec is the container that was unwrapped, or nil.
	Codec Codec

	temp bool
}

// Temporary reports whether Path is a temporary copy owned by e.
func (e *Extracted) Temporary() bool {
	return e.temp
}

// Cleanup removes the temporary copy, if any. It is safe to call more
// than once.
func (e *Extracted) Cleanup() error {
	if !e.temp {
		return nil
	}
	e.temp = false
	if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing temporary file: %w", err)
	}
	return nil
}

// Extract returns a random-access path for src. Compressed sources are
// decompressed into a new file under dir (os.TempDir when empty). On
// error no temporary file is left behind.
func Extract(src, dir string) (*Extracted, error) {
	in, codec, err := Open(src)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	if codec == nil {
		return &Extracted{Path: src}, nil
	}

	out, err := os.CreateTemp(dir, "fitscube-*.fits")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}
	ex := &Extracted{Path: out.Name(), Codec: codec, temp: true}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		ex.Cleanup()
		return nil, fmt.Errorf("decompressing %s container: %w", codec.Name(), err)
	}
	if err := out.Close(); err != nil {
		ex.Cleanup()
		return nil, fmt.Errorf("closing temporary file: %w", err)
	}
	return ex, nil
}
