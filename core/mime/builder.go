// Package mime assembles outbound Type=4 (MIME) item bodies using
// emersion/go-message, the same library the mail-client reference in this
// codebase uses for parsing, extended here to build messages instead.
package mime

import (
	"bytes"
	"fmt"
	"net/mail"
	"strings"
	"time"

	gomessage "github.com/emersion/go-message"
	gomail "github.com/emersion/go-message/mail"

	"easgateway/core/domain"
)

// Builder assembles a domain.Item into a complete RFC 5322 message. A
// Builder is stateless and safe for concurrent use.
type Builder struct{}

// NewBuilder returns a ready-to-use Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build returns the full MIME bytes for an item. If the item already
// carries RawMIME (fetched verbatim from the mail store) it is returned
// as-is; otherwise a multipart/alternative message is synthesized from the
// item's plain/HTML bodies.
func (b *Builder) Build(item domain.Item) ([]byte, error) {
	if len(item.RawMIME) > 0 {
		return item.RawMIME, nil
	}

	var h gomail.Header
	h.SetDate(item.ReceivedAt)
	h.SetSubject(item.Subject)
	if from, err := parseAddressList(item.From); err == nil && len(from) > 0 {
		h.SetAddressList("From", from)
	}
	if to, err := parseAddressList(item.To); err == nil && len(to) > 0 {
		h.SetAddressList("To", to)
	}

	var buf bytes.Buffer
	mw, err := gomail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("mime: create writer: %w", err)
	}

	switch {
	case item.PlainBody != "" && item.HTMLBody != "":
		if err := writeAlternative(mw, item.PlainBody, item.HTMLBody); err != nil {
			return nil, err
		}
	case item.HTMLBody != "":
		if err := writeSinglePart(mw, "text/html", item.HTMLBody); err != nil {
			return nil, err
		}
	default:
		if err := writeSinglePart(mw, "text/plain", item.PlainBody); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("mime: close writer: %w", err)
	}
	return buf.Bytes(), nil
}

func writeAlternative(mw *gomail.Writer, plain, html string) error {
	altHeader := gomail.InlineHeader{}
	altHeader.Set("Content-Type", "multipart/alternative")
	aw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("mime: create alternative part: %w", err)
	}
	defer aw.Close()

	var plainHeader gomail.InlineHeader
	plainHeader.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	pw, err := aw.CreatePart(plainHeader)
	if err != nil {
		return fmt.Errorf("mime: create plain part: %w", err)
	}
	if _, err := pw.Write([]byte(plain)); err != nil {
		pw.Close()
		return fmt.Errorf("mime: write plain part: %w", err)
	}
	pw.Close()

	var htmlHeader gomail.InlineHeader
	htmlHeader.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	hw, err := aw.CreatePart(htmlHeader)
	if err != nil {
		return fmt.Errorf("mime: create html part: %w", err)
	}
	if _, err := hw.Write([]byte(html)); err != nil {
		hw.Close()
		return fmt.Errorf("mime: write html part: %w", err)
	}
	return hw.Close()
}

func writeSinglePart(mw *gomail.Writer, contentType, body string) error {
	var header gomail.InlineHeader
	header.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	w, err := mw.CreateSingleInline(header)
	if err != nil {
		return fmt.Errorf("mime: create single part: %w", err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		w.Close()
		return fmt.Errorf("mime: write single part: %w", err)
	}
	return w.Close()
}

func parseAddressList(raw string) ([]*gomail.Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	addrs, err := mail.ParseAddressList(raw)
	if err != nil {
		return nil, err
	}
	out := make([]*gomail.Address, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, &gomail.Address{Name: a.Name, Address: a.Address})
	}
	return out, nil
}

// Truncate applies the MIME truncation rule (spec.md §4.5.3 step 3): bodies
// are cut to the client-requested TruncationSize, capped by
// domain.MaxMIMETruncation regardless of what the client asked for.
func Truncate(raw []byte, requested int) domain.Body {
	limit := requested
	if limit <= 0 || limit > domain.MaxMIMETruncation {
		limit = domain.MaxMIMETruncation
	}
	if len(raw) <= limit {
		return domain.Body{Type: domain.BodyTypeMIME, Data: raw, EstimatedDataSize: len(raw), Truncated: false}
	}
	return domain.Body{
		Type:              domain.BodyTypeMIME,
		Data:              raw[:limit],
		EstimatedDataSize: len(raw),
		Truncated:         true,
	}
}

// ParseReceivedDate is a small helper for adapters that parse a stored
// RFC 5322 Date header back into time.Time (e.g. when RawMIME came from
// the mail store without a separately indexed received_at column).
func ParseReceivedDate(raw []byte) (time.Time, error) {
	entity, err := gomessage.Read(bytes.NewReader(raw))
	if err != nil {
		return time.Time{}, err
	}
	dateHeader := entity.Header.Get("Date")
	if dateHeader == "" {
		return time.Time{}, fmt.Errorf("mime: no Date header")
	}
	return mail.ParseDate(dateHeader)
}
