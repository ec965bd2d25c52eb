// Package assets loads the key images shown for each action and encodes
// them as data URIs for setImage.
package assets

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/pgriess/streamdeck-workrooms/internal/action"
)

// Variant selects which image an action shows.
type Variant int

const (
	VariantNone Variant = iota
	VariantOn
	VariantOff
)

var variantNames = [...]string{
	VariantNone: "none",
	VariantOn:   "on",
	VariantOff:  "off",
}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// VariantFor maps a status to its image. Everything other than a real
// on/off reading uses the none image.
func VariantFor(s action.Status) Variant {
	switch s {
	case action.StatusOn:
		return VariantOn
	case action.StatusOff:
		return VariantOff
	default:
		return VariantNone
	}
}

// FileName is the image file for a and v, e.g. state_mic_on.png.
func FileName(a action.Action, v Variant) string {
	return fmt.Sprintf("state_%s_%s.png", a, v)
}

// Set holds every image for every action.
type Set struct {
	images [action.Count][len(variantNames)]string
}

// Load reads all images from dir. A missing or unreadable image is an
// error.
func Load(dir string) (*Set, error) {
	s := &Set{}
	for _, a := range action.All {
		for v := range variantNames {
			path := filepath.Join(dir, FileName(a, Variant(v)))
			uri, err := DataURI(path)
			if err != nil {
				return nil, err
			}
			s.images[a.Slot()][v] = uri
		}
	}
	return s, nil
}

// Image returns the data URI shown for a in status st.
func (s *Set) Image(a action.Action, st action.Status) string {
	return s.images[a.Slot()][VariantFor(st)]
}

// DataURI reads path and encodes it as a base64 data URI. The media type
// is derived from the file extension.
func DataURI(path string) (string, error) {
	mediaType := mime.TypeByExtension(filepath.Ext(path))
	if mediaType == "" {
		return "", fmt.Errorf("unknown media type for %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
