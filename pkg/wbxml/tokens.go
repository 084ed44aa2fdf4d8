// Package wbxml implements a WBXML 1.3 encoder/decoder scoped to the subset
// of MS-ASWBXML that ActiveSync command handlers need: codepage switching,
// tag tokens with the content bit, inline strings and opaque data.
//
// It intentionally does not implement the full WAP WBXML grammar (literals,
// extensions, entities, string tables) — EAS servers never emit them and
// MUST reject them on decode.
package wbxml

// Control tokens (WAP-192-WBXML §5.8.1 / MS-ASWBXML §2.1.1).
const (
	tokSwitchPage = 0x00
	tokEnd        = 0x01
	tokStrI       = 0x03
	tokOpaque     = 0xC3
)

// contentBit marks a tag as carrying content (children or text) that ends
// with a matching END token. Without it, the tag is self-closing.
const contentBit = 0x40

// tagMask extracts the token id (low 6 bits) from an encoded tag byte.
const tagMask = 0x3F

// Header constants written by every ActiveSync WBXML document (spec §4.1).
const (
	HeaderVersion  = 0x03 // WBXML 1.3
	HeaderPublicID = 0x01 // "ActiveSync" public identifier
	HeaderCharset  = 0x6A // UTF-8
	HeaderStrTbl   = 0x00 // empty string table
)
