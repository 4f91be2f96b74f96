package videocall

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid"
)

const (
	roomSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	roomSuffixLength   = 9
)

// NewRoomName returns <prefix>-<epoch ms>-<9 random base36 chars>.
// The random suffix keeps names unique within the same millisecond.
func NewRoomName(prefix string, now time.Time) (string, error) {
	suffix, err := gonanoid.Generate(roomSuffixAlphabet, roomSuffixLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate room suffix: %w", err)
	}
	return fmt.Sprintf("%s-%d-%s", prefix, now.UnixMilli(), suffix), nil
}
