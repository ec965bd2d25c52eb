// Package identity derives the anonymous client id and the plugin version
// reported with analytics.
package identity

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/pgriess/streamdeck-workrooms/internal/streamdeck"
)

// ErrNoSerial is returned when no Stream Deck serial number is found.
var ErrNoSerial = errors.New("no Stream Deck serial number found")

// clientIDKey keys the serial hash so the id cannot be matched against
// plain hashes of device serials.
var clientIDKey = []byte("workrooms")

// ProfilerCommand lists USB devices on macOS.
var ProfilerCommand = []string{"system_profiler", "SPUSBDataType"}

// ClientID returns a stable anonymous id for this installation, derived
// from the serial number of the attached Stream Deck.
func ClientID(ctx context.Context) (uuid.UUID, error) {
	out, err := exec.CommandContext(ctx, ProfilerCommand[0], ProfilerCommand[1:]...).Output()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s failed: %w", ProfilerCommand[0], err)
	}
	serial, err := ParseSerial(string(out))
	if err != nil {
		return uuid.Nil, err
	}
	return HashSerial(serial)
}

// ParseSerial finds the first serial number listed after a Stream Deck
// device in system_profiler output.
func ParseSerial(profile string) (string, error) {
	scanner := bufio.NewScanner(strings.NewReader(profile))
	found := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !found {
			found = strings.Contains(line, "Stream Deck")
			continue
		}
		rest, ok := strings.CutPrefix(line, "Serial Number:")
		if !ok {
			continue
		}
		if serial := strings.TrimSpace(rest); serial != "" {
			return serial, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", ErrNoSerial
}

// HashSerial maps a serial number onto a UUID with keyed BLAKE2b-128.
func HashSerial(serial string) (uuid.UUID, error) {
	h, err := blake2b.New(16, clientIDKey)
	if err != nil {
		return uuid.Nil, err
	}
	h.Write([]byte(serial))
	return uuid.FromBytes(h.Sum(nil))
}

// PluginVersion returns the plugin version, preferring the launch -info
// payload and falling back to the Version field of manifest.json at
// manifestPath. Returns "" when neither has one.
func PluginVersion(info streamdeck.Info, manifestPath string) string {
	if info.Plugin.Version != "" {
		return info.Plugin.Version
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return ""
	}
	var manifest struct {
		Version string `json:"Version"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return ""
	}
	return manifest.Version
}
