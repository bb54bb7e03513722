package xmltree

import (
	"errors"
	"strings"
	"testing"
)

const sampleDoc = `<Ableton Creator="Ableton Live 10.1.30" MajorVersion="5">
	<LiveSet>
		<Tracks>
			<AudioTrack Id="12">
				<Name>
					<UserName Value="Drums &amp; Bass" />
				</Name>
			</AudioTrack>
			<MidiTrack Id="13">
				<Name>
					<UserName Value="" />
				</Name>
			</MidiTrack>
		</Tracks>
	</LiveSet>
</Ableton>`

func TestParseRoundTrip(t *testing.T) {
	root, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := string(root.Marshal())
	if got != sampleDoc {
		t.Fatalf("round trip mismatch:\n got: %q\nwant: %q", got, sampleDoc)
	}
}

func TestRoundTripPreservesEmptyElementForm(t *testing.T) {
	doc := `<Ableton Creator="Ableton Live 11.1.5">
	<LiveSet></LiveSet>
	<Tracks />
</Ableton>`
	root, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := string(root.Marshal())
	if got != doc {
		t.Fatalf("empty element form not preserved:\n got: %q\nwant: %q", got, doc)
	}

	// Elements created in code still serialize self-closed.
	live, err := Find(root, "LiveSet")
	if err != nil {
		t.Fatalf("find LiveSet: %v", err)
	}
	live.AppendChild(&Node{Tag: "Tracks"})
	if !strings.Contains(string(root.Marshal()), "<LiveSet><Tracks /></LiveSet>") {
		t.Fatal("appended element should self-close")
	}
}

func TestRoundTripPreservedAfterAttrEdit(t *testing.T) {
	root, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	track, err := Find(root, "LiveSet.Tracks.AudioTrack")
	if err != nil {
		t.Fatalf("find track: %v", err)
	}
	track.SetAttr("Id", "99")

	got := string(root.Marshal())
	want := strings.Replace(sampleDoc, `AudioTrack Id="12"`, `AudioTrack Id="99"`, 1)
	if got != want {
		t.Fatalf("edit disturbed unrelated content:\n got: %q\nwant: %q", got, want)
	}
}

func TestFindReportsAttemptedPath(t *testing.T) {
	root, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = Find(root, "LiveSet.MasterTrack.DeviceChain")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Path != "LiveSet.MasterTrack.DeviceChain" {
		t.Fatalf("unexpected path in error: %q", notFound.Path)
	}
	if FindOptional(root, "LiveSet.MasterTrack") != nil {
		t.Fatal("optional lookup should return nil for missing element")
	}
}

func TestIterAndDescendant(t *testing.T) {
	root, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	names := root.Iter("UserName")
	if len(names) != 2 {
		t.Fatalf("expected 2 UserName nodes, got %d", len(names))
	}
	if got := names[0].AttrDefault("Value", ""); got != "Drums & Bass" {
		t.Fatalf("unexpected first user name: %q", got)
	}
	first := root.Descendant("UserName")
	if first != names[0] {
		t.Fatal("Descendant should return the first match in document order")
	}
}

func TestFindAttr(t *testing.T) {
	root, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	value, err := FindAttr(root, "LiveSet.Tracks.MidiTrack", "Id")
	if err != nil {
		t.Fatalf("find attr: %v", err)
	}
	if value != "13" {
		t.Fatalf("unexpected attr value: %q", value)
	}
	if _, err := FindAttr(root, "LiveSet.Tracks.MidiTrack", "Missing"); err == nil {
		t.Fatal("expected error for missing attribute")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not xml at all")); err == nil {
		t.Fatal("expected error for non-XML input")
	}
	if _, err := Parse([]byte("<A><B></A></B>")); err == nil {
		t.Fatal("expected error for mismatched elements")
	}
}
