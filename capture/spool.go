package capture

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// payloadSpool holds recording payloads on local disk between capture and a
// successful forward to the pinning collaborator. Files are keyed by
// recording ID.
type payloadSpool struct {
	directory string
}

// newPayloadSpool define a payload spool rooted at the given directory
func newPayloadSpool(directory string) (*payloadSpool, error) {
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return nil, fmt.Errorf("failed to prepare payload spool [%w]", err)
	}
	return &payloadSpool{directory: directory}, nil
}

// path spool file path for one recording
func (s *payloadSpool) path(recordingID string) string {
	return filepath.Join(s.directory, fmt.Sprintf("%s.bin", recordingID))
}

// put write a recording payload into the spool
func (s *payloadSpool) put(recordingID string, payload []byte) error {
	if err := os.WriteFile(s.path(recordingID), payload, 0o600); err != nil {
		return fmt.Errorf("failed to spool payload of '%s' [%w]", recordingID, err)
	}
	return nil
}

// open read access to a spooled recording payload
func (s *payloadSpool) open(recordingID string) (io.ReadCloser, int64, error) {
	file, err := os.Open(s.path(recordingID))
	if err != nil {
		return nil, 0, fmt.Errorf("no spooled payload for '%s' [%w]", recordingID, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, 0, fmt.Errorf("failed to stat spooled payload of '%s' [%w]", recordingID, err)
	}
	return file, info.Size(), nil
}

// remove drop a spooled recording payload. Absent payloads are a no-op.
func (s *payloadSpool) remove(recordingID string) error {
	if err := os.Remove(s.path(recordingID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to drop spooled payload of '%s' [%w]", recordingID, err)
	}
	return nil
}
