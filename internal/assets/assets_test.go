package assets

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/pgriess/streamdeck-workrooms/internal/action"
)

func writeImages(t *testing.T, dir string) {
	t.Helper()
	for _, a := range action.All {
		for _, v := range []Variant{VariantNone, VariantOn, VariantOff} {
			body := []byte(a.String() + "/" + v.String())
			if err := os.WriteFile(filepath.Join(dir, FileName(a, v)), body, 0o644); err != nil {
				t.Fatalf("write image: %v", err)
			}
		}
	}
}

func TestDataURI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.png")
	if err := os.WriteFile(path, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := DataURI(path)
	if err != nil {
		t.Fatalf("DataURI() error = %v", err)
	}
	if want := "data:image/png;base64,aGk="; got != want {
		t.Fatalf("DataURI() = %q, want %q", got, want)
	}

	if _, err := DataURI(filepath.Join(t.TempDir(), "x.unknownext")); err == nil {
		t.Fatal("expected error for unknown extension")
	}
}

func TestLoadAndSelect(t *testing.T) {
	dir := t.TempDir()
	writeImages(t, dir)

	set, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		a      action.Action
		status action.Status
		want   string
	}{
		{action.Mic, action.StatusOn, "mic/on"},
		{action.Camera, action.StatusOff, "camera/off"},
		{action.Hand, action.StatusNone, "hand/none"},
		{action.Call, action.StatusUnknown, "call/none"},
		{action.Call, action.StatusAbsent, "call/none"},
		{action.Mic, action.Status(42), "mic/none"},
	}
	for _, tt := range tests {
		uri := set.Image(tt.a, tt.status)
		want := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte(tt.want))
		if uri != want {
			t.Errorf("Image(%s, %s) = %q, want %q", tt.a, tt.status, uri, want)
		}
	}
}

func TestLoadMissingImage(t *testing.T) {
	dir := t.TempDir()
	writeImages(t, dir)
	if err := os.Remove(filepath.Join(dir, FileName(action.Hand, VariantOff))); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("Load() succeeded with a missing image")
	}
}
