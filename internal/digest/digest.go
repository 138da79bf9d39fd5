package digest

import (
	"context"
	"crypto/md5" // #nosec G501 -- used for file integrity verification only
	"encoding/hex"
	"io"
	"os"
)

// DefaultChunkSize is the read granularity between cancellation checkpoints.
// Tuning it trades syscall overhead against cancellation latency; it never
// affects the computed digest.
const DefaultChunkSize = 64 * 1024

// File streams the file at path through MD5 and returns the lowercase hex
// digest. chunkSize <= 0 selects DefaultChunkSize.
//
// ctx is checked before every chunk; once it is cancelled, File stops
// reading and returns ctx.Err(). onProgress, when non-nil, receives the
// integer completion percentage each time it increases, with a final 100
// guaranteed on success. Opening an absent file fails with fs.ErrNotExist
// so the caller can tell missing apart from other I/O failures.
func File(ctx context.Context, path string, chunkSize int, onProgress func(pct int)) (string, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	size := info.Size()

	h := md5.New() // #nosec G401 -- used for file integrity verification only
	buf := make([]byte, chunkSize)

	var read int64
	last := 0
	report := func(pct int) {
		if onProgress != nil && pct > last {
			last = pct
			onProgress(pct)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, rerr := f.Read(buf)
		if n > 0 {
			if _, werr := h.Write(buf[:n]); werr != nil {
				return "", werr
			}
			read += int64(n)
			if size > 0 {
				pct := int(read * 100 / size)
				if pct > 100 {
					pct = 100 // file grew since open
				}
				report(pct)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", rerr
		}
	}
	report(100)

	return hex.EncodeToString(h.Sum(nil)), nil
}
