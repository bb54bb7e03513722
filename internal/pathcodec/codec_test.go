package pathcodec

import (
	"testing"
)

// buildStructBlob assembles a macOS-style blob: 6 header bytes, then each
// segment as length byte, payload, NUL, with padding in between.
func buildStructBlob(segments ...string) []byte {
	data := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x2A}
	data = append(data, 0xFF, 0x00)
	for _, seg := range segments {
		data = append(data, byte(len(seg)))
		data = append(data, seg...)
		data = append(data, 0x00)
	}
	// Trailing padding so the final segment terminator is not the last byte.
	data = append(data, 0x00, 0x00)
	return data
}

func utf16leBytes(s string) []byte {
	var data []byte
	for _, r := range s {
		data = append(data, byte(r), byte(r>>8))
	}
	return append(data, 0x00, 0x00)
}

func TestDecodeStructPath(t *testing.T) {
	blob := buildStructBlob("kick.wav", "/Users/me/Samples/kick.wav", "Macintosh HD")
	path, detected, err := Decode(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detected != OSMac {
		t.Fatalf("expected macOS dispatch, got %v", detected)
	}
	if path != "Macintosh HD/Users/me/Samples/kick.wav" {
		t.Fatalf("unexpected path: %q", path)
	}
}

func TestDecodeStructSkipsPaddingAndRejectsShort(t *testing.T) {
	// Interleave extra padding bytes between segments.
	blob := []byte{0x00, 0x00, 0x00, 0x12, 0x00, 0x00}
	blob = append(blob, 0xFF, 0xFF, 0x00)
	blob = append(blob, 0x03)
	blob = append(blob, "/ab"...)
	blob = append(blob, 0x00, 0xFF)
	blob = append(blob, 0x02)
	blob = append(blob, "HD"...)
	blob = append(blob, 0x00, 0x00, 0x00)
	path, _, err := Decode(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if path != "HD/ab" {
		t.Fatalf("unexpected path: %q", path)
	}

	// A single segment is not enough to form a path.
	if _, detected, err := Decode(buildStructBlob("only")); err == nil {
		t.Fatal("expected error for single-segment blob")
	} else if detected != OSMac {
		t.Fatalf("expected macOS dispatch, got %v", detected)
	}
}

func TestDecodeWindowsPath(t *testing.T) {
	blob := utf16leBytes(`C:\Samples\Drums\kick.wav`)
	path, detected, err := Decode(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detected != OSWindows {
		t.Fatalf("expected Windows dispatch, got %v", detected)
	}
	if path != `C:\Samples\Drums\kick.wav` {
		t.Fatalf("unexpected path: %q", path)
	}
}

func TestDecodeWindowsRejectsMalformed(t *testing.T) {
	if _, _, err := Decode([]byte{0x41, 0x00, 0x42}); err == nil {
		t.Fatal("expected error for odd-length utf-16 data")
	}
	// Lone high surrogate.
	if _, _, err := Decode([]byte{0x00, 0xD8, 0x41, 0x00}); err == nil {
		t.Fatal("expected error for unpaired surrogate")
	}
}

func TestDispatchHeuristic(t *testing.T) {
	// Three leading zero bytes always select the struct decoder.
	_, detected, _ := Decode([]byte{0x00, 0x00, 0x00, 0x01})
	if detected != OSMac {
		t.Fatalf("expected macOS dispatch for zero prefix, got %v", detected)
	}
	_, detected, _ = Decode(utf16leBytes("D:"))
	if detected != OSWindows {
		t.Fatalf("expected Windows dispatch, got %v", detected)
	}
}

func TestEncodeLegacyRoundTrip(t *testing.T) {
	paths := []string{
		`C:\Users\producer\Samples\snare 02.wav`,
		"/Users/producer/Samples/hat.aif",
		"D:/AbletonSync/Project/Samples/Imported/2051 BASS.wav",
	}
	for _, want := range paths {
		encoded := EncodeLegacy(want)
		data, err := DecodeHexText(encoded)
		if err != nil {
			t.Fatalf("decode hex for %q: %v", want, err)
		}
		got, detected, err := Decode(data)
		if err != nil {
			t.Fatalf("decode %q: %v", want, err)
		}
		if detected != OSWindows {
			t.Fatalf("legacy encoding should read back as UTF-16, got %v", detected)
		}
		if got != want {
			t.Fatalf("round trip mismatch: got %q want %q", got, want)
		}
	}
}

func TestDecodeHexTextStripsLayout(t *testing.T) {
	data, err := DecodeHexText("\n\t\t\t41004200\n\t\t\t43004400\n\t\t")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(data) != "A\x00B\x00C\x00D\x00" {
		t.Fatalf("unexpected bytes: %q", data)
	}
	if _, err := DecodeHexText("zz"); err == nil {
		t.Fatal("expected error for invalid hex")
	}
	if _, err := DecodeHexText("\n\t\t"); err == nil {
		t.Fatal("expected error for empty text")
	}
}
