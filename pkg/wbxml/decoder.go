package wbxml

import (
	"fmt"

	"easgateway/pkg/wbxml/codepage"
)

// EventKind identifies the shape of a decoded Event.
type EventKind int

const (
	EventStartTag EventKind = iota
	EventEndTag
	EventText
	EventOpaque
	EventEOF
)

// Event is one node in the decoded document's event stream. Consumers
// (command handlers) walk a Decoder by calling Next in a loop, matching on
// Kind the way an XML pull-parser would.
type Event struct {
	Kind EventKind
	// Tag is set on EventStartTag only: the qualified "Namespace:Tag".
	Tag string
	// HasContent is set on EventStartTag: whether the tag carries
	// children/text (content bit) or is self-closing.
	HasContent bool
	// Text is set on EventText.
	Text string
	// Opaque is set on EventOpaque.
	Opaque []byte
}

// Decoder walks a WBXML document byte-by-byte, tracking the active
// codepage across SWITCH_PAGE tokens and rejecting anything outside the
// restricted grammar this core accepts (spec.md §4.1: literals, string
// tables and entities are never emitted by real EAS clients and MUST be
// rejected here).
type Decoder struct {
	data    []byte
	pos     int
	curPage codepage.CP

	// openStack tracks which open tags still expect an END token, so a
	// self-closing tag (no content bit) never consumes one.
	openStack []bool
}

// NewDecoder validates the four-byte header and returns a Decoder
// positioned at the first body token.
func NewDecoder(data []byte) (*Decoder, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("wbxml: document too short (%d bytes)", len(data))
	}
	if data[0] != HeaderVersion {
		return nil, fmt.Errorf("wbxml: unsupported version byte 0x%02X", data[0])
	}
	if data[1] != HeaderPublicID {
		return nil, fmt.Errorf("wbxml: unsupported public identifier 0x%02X", data[1])
	}
	if data[2] != HeaderCharset {
		return nil, fmt.Errorf("wbxml: unsupported charset 0x%02X", data[2])
	}
	strTblLen, n, err := readMultiByteUint(data[3:])
	if err != nil {
		return nil, fmt.Errorf("wbxml: malformed string table length: %w", err)
	}
	if strTblLen != 0 {
		return nil, fmt.Errorf("wbxml: non-empty string table (len=%d) is not supported", strTblLen)
	}
	return &Decoder{data: data, pos: 3 + n}, nil
}

// Next returns the next Event in the document, or an EventEOF Event once
// the body is exhausted. It returns an error on any malformed or
// unsupported encoding (unknown tag token, truncated mb_u_int32, literal
// tag, dangling END, etc.) — the decoder never guesses past invalid input.
func (d *Decoder) Next() (Event, error) {
	for {
		if d.pos >= len(d.data) {
			if len(d.openStack) != 0 {
				return Event{}, fmt.Errorf("wbxml: truncated document, %d tag(s) still open", len(d.openStack))
			}
			return Event{Kind: EventEOF}, nil
		}
		b := d.data[d.pos]
		switch b {
		case tokSwitchPage:
			d.pos++
			if d.pos >= len(d.data) {
				return Event{}, fmt.Errorf("wbxml: truncated SWITCH_PAGE")
			}
			cp := codepage.CP(d.data[d.pos])
			if !codepage.IsRegistered(cp) {
				return Event{}, fmt.Errorf("wbxml: unknown codepage id %d", cp)
			}
			d.curPage = cp
			d.pos++
			continue
		case tokEnd:
			d.pos++
			if len(d.openStack) == 0 {
				return Event{}, fmt.Errorf("wbxml: unmatched END token")
			}
			d.openStack = d.openStack[:len(d.openStack)-1]
			return Event{Kind: EventEndTag}, nil
		case tokStrI:
			d.pos++
			s, n, err := readCString(d.data[d.pos:])
			if err != nil {
				return Event{}, fmt.Errorf("wbxml: malformed inline string: %w", err)
			}
			d.pos += n
			return Event{Kind: EventText, Text: s}, nil
		case tokOpaque:
			d.pos++
			length, n, err := readMultiByteUint(d.data[d.pos:])
			if err != nil {
				return Event{}, fmt.Errorf("wbxml: malformed OPAQUE length: %w", err)
			}
			d.pos += n
			if d.pos+int(length) > len(d.data) {
				return Event{}, fmt.Errorf("wbxml: OPAQUE length %d exceeds remaining document", length)
			}
			data := make([]byte, length)
			copy(data, d.data[d.pos:d.pos+int(length)])
			d.pos += int(length)
			return Event{Kind: EventOpaque, Opaque: data}, nil
		default:
			hasContent := b&contentBit != 0
			token := b & tagMask
			tag, ok := codepage.Resolve(d.curPage, token)
			if !ok {
				return Event{}, fmt.Errorf("wbxml: unknown tag token 0x%02X in codepage %d", token, d.curPage)
			}
			d.pos++
			if hasContent {
				d.openStack = append(d.openStack, true)
			}
			return Event{Kind: EventStartTag, Tag: tag, HasContent: hasContent}, nil
		}
	}
}

// readCString reads a NUL-terminated UTF-8 string as used by STR_I.
func readCString(b []byte) (string, int, error) {
	for i, c := range b {
		if c == 0x00 {
			return string(b[:i]), i + 1, nil
		}
	}
	return "", 0, fmt.Errorf("missing NUL terminator")
}

// readMultiByteUint decodes a WBXML mb_u_int32 and returns the value plus
// the number of bytes consumed.
func readMultiByteUint(b []byte) (uint32, int, error) {
	var v uint32
	for i, c := range b {
		v = v<<7 | uint32(c&0x7F)
		if c&0x80 == 0 {
			return v, i + 1, nil
		}
		if i >= 4 {
			return 0, 0, fmt.Errorf("mb_u_int32 exceeds 5 bytes")
		}
	}
	return 0, 0, fmt.Errorf("truncated mb_u_int32")
}
