package wbxml

import (
	"bytes"
	"fmt"

	"easgateway/pkg/wbxml/codepage"
)

// Encoder builds a WBXML document using delayed tag emission: Start only
// records that a tag was opened, and defers writing its byte until either
// text/opaque content follows (content bit set, tag written) or End is
// called with nothing written since Start (tag written self-closing,
// without the content bit). This mirrors the grommunio encoder's
// start_tag/end_tag/content stack discipline, which avoids ever emitting an
// END token for a tag that turned out to have no content.
type Encoder struct {
	buf        bytes.Buffer
	curPage    codepage.CP
	pageValid  bool
	stack      []pendingTag
	err        error
}

type pendingTag struct {
	cp      codepage.CP
	token   byte
	written bool // true once the tag byte itself has been flushed to buf
	qname   string
}

// NewEncoder returns an Encoder with the four-byte WBXML header already
// written (spec.md §4.1).
func NewEncoder() *Encoder {
	e := &Encoder{}
	e.buf.WriteByte(HeaderVersion)
	e.buf.WriteByte(HeaderPublicID)
	e.buf.WriteByte(HeaderCharset)
	e.buf.WriteByte(HeaderStrTbl)
	return e
}

// Err returns the first error encountered by any Start/Text/Opaque/End call,
// if any. Callers should check it once after building the whole document
// rather than after every call.
func (e *Encoder) Err() error { return e.err }

// Start opens a tag named "Namespace:Tag" (e.g. "FolderHierarchy:Status").
// Emission of the tag byte is deferred until content arrives or End closes
// it with nothing written.
func (e *Encoder) Start(qualifiedTag string) {
	if e.err != nil {
		return
	}
	cp, tok, ok := codepage.Lookup(qualifiedTag)
	if !ok {
		e.err = fmt.Errorf("wbxml: unknown tag %q", qualifiedTag)
		return
	}
	e.stack = append(e.stack, pendingTag{cp: cp, token: tok, qname: qualifiedTag})
}

// End closes the most recently opened tag. If no content was ever written
// for it, it is flushed as a self-closing tag (no content bit, no END
// token); otherwise an END token is appended.
func (e *Encoder) End() {
	if e.err != nil {
		return
	}
	if len(e.stack) == 0 {
		e.err = fmt.Errorf("wbxml: End called with no open tag")
		return
	}
	top := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	if !top.written {
		// Closing this tag is itself "content" for any still-unwritten
		// ancestor, so flush those (with the content bit) before writing
		// this tag's own self-closing byte.
		e.flushOpen()
		e.switchPage(top.cp)
		e.buf.WriteByte(top.token)
		return
	}
	e.buf.WriteByte(tokEnd)
}

// Text writes an inline string (STR_I) as the content of the currently open
// tag, flushing the tag's start byte with the content bit set if it has not
// been flushed yet.
func (e *Encoder) Text(s string) {
	if e.err != nil {
		return
	}
	e.flushOpen()
	e.buf.WriteByte(tokStrI)
	e.buf.WriteString(s)
	e.buf.WriteByte(0x00)
}

// Opaque writes raw binary content (used for MIME bodies projected through
// AirSyncBase:Data) as an OPAQUE token followed by an mb_u_int32 length and
// the raw bytes.
func (e *Encoder) Opaque(data []byte) {
	if e.err != nil {
		return
	}
	e.flushOpen()
	e.buf.WriteByte(tokOpaque)
	writeMultiByteUint(&e.buf, uint32(len(data)))
	e.buf.Write(data)
}

// TextTag is a convenience for the common Start/Text/End sequence.
func (e *Encoder) TextTag(qualifiedTag, value string) {
	e.Start(qualifiedTag)
	e.Text(value)
	e.End()
}

// flushOpen writes the start byte (with content bit) for every tag on the
// stack that has not yet been written, outermost first, and marks each one
// written. Several nested Starts with no content in between leave a run of
// unwritten tags; content arriving in the innermost one means every one of
// them has content.
func (e *Encoder) flushOpen() {
	for i := range e.stack {
		if !e.stack[i].written {
			e.switchPage(e.stack[i].cp)
			e.buf.WriteByte(e.stack[i].token | contentBit)
			e.stack[i].written = true
		}
	}
}

// switchPage emits a SWITCH_PAGE token only when the target codepage
// differs from the one currently active, matching MS-ASWBXML's requirement
// that switches be minimal rather than per-tag.
func (e *Encoder) switchPage(cp codepage.CP) {
	if e.pageValid && e.curPage == cp {
		return
	}
	e.buf.WriteByte(tokSwitchPage)
	e.buf.WriteByte(byte(cp))
	e.curPage = cp
	e.pageValid = true
}

// Bytes finalizes the document. It returns an error if any tag opened with
// Start was never closed with End, or if an earlier call already failed.
func (e *Encoder) Bytes() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	if len(e.stack) != 0 {
		return nil, fmt.Errorf("wbxml: %d unclosed tag(s), innermost %q", len(e.stack), e.stack[len(e.stack)-1].qname)
	}
	out := make([]byte, e.buf.Len())
	copy(out, e.buf.Bytes())
	return out, nil
}

// writeMultiByteUint encodes v as a WBXML mb_u_int32 (MS-ASWBXML §2.1.2):
// base-128, most-significant group first, continuation bit (0x80) set on
// every byte but the last.
func writeMultiByteUint(buf *bytes.Buffer, v uint32) {
	var stack [5]byte
	n := 0
	stack[n] = byte(v & 0x7F)
	n++
	v >>= 7
	for v > 0 {
		stack[n] = byte(v&0x7F) | 0x80
		n++
		v >>= 7
	}
	for i := n - 1; i >= 0; i-- {
		buf.WriteByte(stack[i])
	}
}
