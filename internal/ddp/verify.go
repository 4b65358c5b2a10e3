package ddp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// wavHeaderSize is the size of a canonical RIFF/WAVE header.
const wavHeaderSize = 44

// TrackFileName returns the engine's filename for the 1-based track n.
func TrackFileName(n int) string {
	return fmt.Sprintf("track_%02d.wav", n)
}

// TrackFile reports the state of one produced audio file.
type TrackFile struct {
	Number int
	Path   string
	Size   int64
	Err    error
}

// OK reports whether the file passed verification.
func (f TrackFile) OK() bool { return f.Err == nil }

// VerifyOutput checks that outputDir holds one well-formed WAV per track in doc.
// The returned error wraps ErrOutputContract when any file is missing or invalid.
func VerifyOutput(outputDir string, doc *Document) ([]TrackFile, error) {
	count := doc.TrackCount()
	if count == 0 {
		return nil, &ContractError{Mode: ModeProcess, Path: filepath.Join(outputDir, MetadataFileName), Err: errors.New("document lists no tracks")}
	}
	files := make([]TrackFile, 0, count)
	var failures []error
	for n := 1; n <= count; n++ {
		path := filepath.Join(outputDir, TrackFileName(n))
		size, err := CheckWAV(path)
		files = append(files, TrackFile{Number: n, Path: path, Size: size, Err: err})
		if err != nil {
			failures = append(failures, fmt.Errorf("track %d: %w", n, err))
		}
	}
	if len(failures) > 0 {
		return files, &ContractError{Mode: ModeProcess, Path: outputDir, Err: errors.Join(failures...)}
	}
	return files, nil
}

// CheckWAV verifies the RIFF and WAVE tags and the minimum header size,
// returning the file size.
func CheckWAV(path string) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, err
	}
	size := info.Size()
	if size < wavHeaderSize {
		return size, fmt.Errorf("%s: %d bytes is shorter than a WAV header", filepath.Base(path), size)
	}
	header := make([]byte, 12)
	if _, err := io.ReadFull(file, header); err != nil {
		return size, fmt.Errorf("%s: read header: %w", filepath.Base(path), err)
	}
	if !bytes.Equal(header[0:4], []byte("RIFF")) {
		return size, fmt.Errorf("%s: missing RIFF tag", filepath.Base(path))
	}
	if !bytes.Equal(header[8:12], []byte("WAVE")) {
		return size, fmt.Errorf("%s: missing WAVE tag", filepath.Base(path))
	}
	return size, nil
}
