package eas

import (
	"fmt"

	"easgateway/core/domain"
	"easgateway/core/mime"
	"easgateway/core/port/in"
	"easgateway/core/strategy"
	"easgateway/pkg/wbxml"
)

// selectBodyPreference intersects the client's requested body types with
// the strategy's preference order (spec.md §4.5.3 step 2): the first type
// present in both wins. If the client sent no BodyPreference at all, the
// strategy's own first choice is used with no truncation hint.
func selectBodyPreference(strat strategy.ClientStrategy, prefs []in.BodyPreference) (bodyType int, requestedTruncation int) {
	order := strat.BodyTypePreference()
	if len(prefs) == 0 {
		return order[0], 0
	}
	byType := make(map[int]int, len(prefs))
	for _, p := range prefs {
		byType[p.Type] = p.TruncationSize
	}
	for _, t := range order {
		if trunc, ok := byType[t]; ok {
			return t, trunc
		}
	}
	// None of the client's requested types appear in the strategy's known
	// order: honor the client's first request verbatim rather than
	// silently dropping the body.
	return prefs[0].Type, prefs[0].TruncationSize
}

// prepareBody renders an item's body for the chosen type, truncating per
// the strategy's rule (spec.md §4.5.3 step 3 / MaxMIMETruncation ceiling).
// This is a Service method because Type=4 bodies go through the MIME
// Builder, a collaborator the rendering step (RenderAdd below) never
// needs.
func (s *Service) prepareBody(item domain.Item, bodyType, requested int, strat strategy.ClientStrategy, isInitialSync bool) (domain.Body, error) {
	limit := strat.TruncationSize(bodyType, requested, isInitialSync)
	switch bodyType {
	case domain.BodyTypeMIME:
		raw, err := s.MIME.Build(item)
		if err != nil {
			return domain.Body{}, fmt.Errorf("eas: build MIME for item %d: %w", item.ID, err)
		}
		return mime.Truncate(raw, limit), nil
	case domain.BodyTypeHTML:
		return truncateText(domain.BodyTypeHTML, item.HTMLBody, limit), nil
	default:
		return truncateText(domain.BodyTypePlain, item.PlainBody, limit), nil
	}
}

func truncateText(bodyType int, text string, limit int) domain.Body {
	raw := []byte(text)
	if limit <= 0 || len(raw) <= limit {
		return domain.Body{Type: bodyType, Data: raw, EstimatedDataSize: len(raw), Truncated: false}
	}
	return domain.Body{Type: bodyType, Data: raw[:limit], EstimatedDataSize: len(raw), Truncated: true}
}

// RenderAdd emits one <Add><ServerId>...<ApplicationData>...</ApplicationData></Add>
// per spec.md §4.5.3 step 5, in the exact field order the spec mandates —
// reordering here is what causes Outlook/iOS to silently reject a batch.
// It is a free function, not a Service method: rendering is purely
// mechanical once body preparation (Service.prepareBody) has already run.
func RenderAdd(enc *wbxml.Encoder, collectionID string, pi in.ProjectedItem) {
	item, body := pi.Item, pi.Body

	enc.Start("AirSync:Add")
	enc.TextTag("AirSync:ServerId", fmt.Sprintf("%s:%d", collectionID, item.ID))
	enc.Start("AirSync:ApplicationData")

	enc.TextTag("Email:To", item.To)
	enc.TextTag("Email:From", item.From)
	enc.TextTag("Email:Subject", item.Subject)
	enc.TextTag("Email:DateReceived", item.ReceivedAt.UTC().Format("2006-01-02T15:04:05.000Z"))
	enc.TextTag("Email:DisplayTo", item.To)
	enc.TextTag("Email:ThreadTopic", item.Subject)
	enc.TextTag("Email:Importance", "1")
	enc.TextTag("Email:Read", boolFlag(item.Read))
	enc.TextTag("Email:MessageClass", "IPM.Note")
	enc.TextTag("Email:InternetCPID", "65001")
	enc.TextTag("Email:ContentClass", "urn:content-classes:message")

	RenderBody(enc, body)
	if preview := domain.Preview(item.PlainBody, item.HTMLBody); preview != "" {
		enc.TextTag("AirSyncBase:Preview", preview)
	}
	enc.TextTag("AirSyncBase:NativeBodyType", nativeBodyType(item))

	enc.End() // ApplicationData
	enc.End() // Add
}

// RenderBody emits <AirSyncBase:Body> in canonical child order (spec.md
// §4.4): Type, EstimatedDataSize, Truncated, Data. Data is OPAQUE for MIME
// bodies (mandatory) and for any body containing non-ASCII bytes; STR_I is
// used only for plain-ASCII plain/HTML bodies.
func RenderBody(enc *wbxml.Encoder, body domain.Body) {
	enc.Start("AirSyncBase:Body")
	enc.TextTag("AirSyncBase:Type", fmt.Sprintf("%d", body.Type))
	enc.TextTag("AirSyncBase:EstimatedDataSize", fmt.Sprintf("%d", body.EstimatedDataSize))
	enc.TextTag("AirSyncBase:Truncated", boolFlag(body.Truncated))
	enc.Start("AirSyncBase:Data")
	if body.Type == domain.BodyTypeMIME || !isASCII(body.Data) {
		enc.Opaque(body.Data)
	} else {
		enc.Text(string(body.Data))
	}
	enc.End()
	enc.End()
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func nativeBodyType(item domain.Item) string {
	switch {
	case len(item.RawMIME) > 0:
		return "4"
	case item.HTMLBody != "":
		return "2"
	default:
		return "1"
	}
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c > 0x7F {
			return false
		}
	}
	return true
}

// clampWindowSize applies the boundary rules from spec.md §8. By
// convention the decoder passes -1 for an omitted <WindowSize> (using the
// strategy default) and the literal value otherwise; an explicit 0 is
// treated as 1, and anything above the strategy's ceiling is clamped
// silently rather than rejected.
func clampWindowSize(requested int, strat strategy.ClientStrategy) int {
	if requested < 0 {
		return strat.DefaultWindowSize()
	}
	if requested == 0 {
		return 1
	}
	if max := strat.MaxWindowSize(); requested > max {
		return max
	}
	return requested
}
