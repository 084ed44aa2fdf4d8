package wbxml

import (
	"bytes"
	"testing"
)

func TestEncodeDecode_SimpleNesting(t *testing.T) {
	enc := NewEncoder()
	enc.Start("FolderHierarchy:FolderSync")
	enc.TextTag("FolderHierarchy:Status", "1")
	enc.Start("FolderHierarchy:Changes")
	enc.Start("FolderHierarchy:Add")
	enc.TextTag("FolderHierarchy:ServerId", "5")
	enc.TextTag("FolderHierarchy:DisplayName", "Inbox")
	enc.End() // Add
	enc.End() // Changes
	enc.End() // FolderSync

	out, err := enc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	dec, err := NewDecoder(out)
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}

	var tags []string
	var texts []string
	for {
		ev, err := dec.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if ev.Kind == EventEOF {
			break
		}
		switch ev.Kind {
		case EventStartTag:
			tags = append(tags, "START:"+ev.Tag)
		case EventEndTag:
			tags = append(tags, "END")
		case EventText:
			texts = append(texts, ev.Text)
		}
	}

	wantTags := []string{
		"START:FolderHierarchy:FolderSync",
		"START:FolderHierarchy:Status",
		"END",
		"START:FolderHierarchy:Changes",
		"START:FolderHierarchy:Add",
		"START:FolderHierarchy:ServerId",
		"END",
		"START:FolderHierarchy:DisplayName",
		"END",
		"END", // Add
		"END", // Changes
		"END", // FolderSync
	}
	if len(tags) != len(wantTags) {
		t.Fatalf("got %d tag events, want %d: %v", len(tags), len(wantTags), tags)
	}
	for i := range tags {
		if tags[i] != wantTags[i] {
			t.Errorf("tag[%d] = %q, want %q", i, tags[i], wantTags[i])
		}
	}

	wantTexts := []string{"1", "5", "Inbox"}
	if len(texts) != len(wantTexts) {
		t.Fatalf("got %d texts, want %d: %v", len(texts), len(wantTexts), texts)
	}
	for i := range texts {
		if texts[i] != wantTexts[i] {
			t.Errorf("text[%d] = %q, want %q", i, texts[i], wantTexts[i])
		}
	}
}

func TestEncoder_SelfClosingTagHasNoContentBit(t *testing.T) {
	enc := NewEncoder()
	enc.Start("AirSync:MoreAvailable")
	enc.End()
	out, err := enc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	// header(4) + SWITCH_PAGE(2) + tag byte, no content bit, no END token.
	if len(out) != 7 {
		t.Fatalf("len(out) = %d, want 7: % X", len(out), out)
	}
	tagByte := out[6]
	if tagByte&contentBit != 0 {
		t.Errorf("self-closing tag byte 0x%02X has content bit set", tagByte)
	}
}

func TestEncoder_CodepageSwitchOnlyWhenNeeded(t *testing.T) {
	enc := NewEncoder()
	enc.TextTag("AirSync:SyncKey", "1")
	enc.TextTag("AirSync:CollectionId", "2")
	out, err := enc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	// Exactly one SWITCH_PAGE should appear even though two tags were
	// written in the same (default) codepage. Count SWITCH_PAGE+AirSync(0)
	// pairs after the 4-byte header: a bare 0x00 count would also hit the
	// header's string-table length and the STR_I NUL terminators.
	count := bytes.Count(out[4:], []byte{tokSwitchPage, 0x00})
	if count != 1 {
		t.Errorf("SWITCH_PAGE appeared %d times, want 1: % X", count, out)
	}
}

func TestEncoder_UnclosedTagIsError(t *testing.T) {
	enc := NewEncoder()
	enc.Start("AirSync:Sync")
	if _, err := enc.Bytes(); err == nil {
		t.Fatal("Bytes() error = nil, want error for unclosed tag")
	}
}

func TestEncoder_UnknownTagIsError(t *testing.T) {
	enc := NewEncoder()
	enc.Start("AirSync:NotARealTag")
	if _, err := enc.Bytes(); err == nil {
		t.Fatal("Bytes() error = nil, want error for unknown tag")
	}
}

func TestDecoder_RejectsBadHeader(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"too short", []byte{0x03, 0x01}},
		{"bad version", []byte{0x02, 0x01, 0x6A, 0x00}},
		{"bad public id", []byte{0x03, 0x99, 0x6A, 0x00}},
		{"bad charset", []byte{0x03, 0x01, 0x00, 0x00}},
		{"nonempty string table", []byte{0x03, 0x01, 0x6A, 0x05}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDecoder(tt.data); err == nil {
				t.Errorf("NewDecoder(%v) error = nil, want error", tt.data)
			}
		})
	}
}

func TestDecoder_RejectsUnmatchedEnd(t *testing.T) {
	data := []byte{HeaderVersion, HeaderPublicID, HeaderCharset, HeaderStrTbl, tokEnd}
	dec, err := NewDecoder(data)
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	if _, err := dec.Next(); err == nil {
		t.Fatal("Next() error = nil, want error for unmatched END")
	}
}

func TestEncodeDecode_Opaque(t *testing.T) {
	payload := []byte("From: a@b\r\nSubject: hi\r\n\r\nbody")
	enc := NewEncoder()
	enc.Start("AirSyncBase:Data")
	enc.Opaque(payload)
	enc.End()
	out, err := enc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	dec, err := NewDecoder(out)
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	var gotOpaque []byte
	for {
		ev, err := dec.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if ev.Kind == EventEOF {
			break
		}
		if ev.Kind == EventOpaque {
			gotOpaque = ev.Opaque
		}
	}
	if !bytes.Equal(gotOpaque, payload) {
		t.Errorf("opaque = %q, want %q", gotOpaque, payload)
	}
}
