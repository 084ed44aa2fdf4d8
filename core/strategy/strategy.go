// Package strategy selects per-client-type ActiveSync behavior. Real EAS
// clients diverge from the letter of MS-ASCMD in ways that are only
// survivable by special-casing them (Outlook Desktop's refusal to accept
// items on the 0->1 sync, in particular) — this package isolates that
// special-casing behind one interface per concern.
package strategy

import "strings"

// ClientStrategy captures every point in the command handlers where
// behavior must diverge by client type.
type ClientStrategy interface {
	// Name is a short human-readable identifier, used in diagnostics.
	Name() string

	// NeedsEmptyInitialResponse reports whether, for the given client
	// SyncKey, the server must reply with folder/collection structure only
	// and no items (Outlook Desktop's 0->1 requirement).
	NeedsEmptyInitialResponse(clientSyncKey string) bool

	// DefaultWindowSize is the batch size used when the client omits
	// WindowSize.
	DefaultWindowSize() int

	// MaxWindowSize is the hard ceiling a requested WindowSize is clamped to.
	MaxWindowSize() int

	// BodyTypePreference orders body types (1=plain, 2=HTML, 4=MIME) from
	// most to least preferred. It decides which of the client's
	// BodyPreference entries wins, and is the fallback when the Sync request
	// omits BodyPreference entirely.
	BodyTypePreference() []int

	// UsesPendingConfirmation reports whether a staged batch must wait for
	// the client to present its SyncKey again before being committed
	// (two-phase commit), or whether it commits immediately on send.
	UsesPendingConfirmation() bool

	// TruncationSize computes the effective truncation size in bytes for a
	// body of the given type, given what the client requested (0 means
	// "unlimited") and whether this is the initial sync. A returned 0 means
	// unlimited.
	TruncationSize(bodyType int, requested int, isInitialSync bool) int
}

// mimeCap is the Z-Push-derived ceiling every strategy applies to Type=4
// bodies regardless of what the client asks for.
const mimeCap = 512000

func capMIME(requested int) int {
	if requested <= 0 || requested > mimeCap {
		return mimeCap
	}
	return requested
}

// Select returns the ClientStrategy for an incoming request, detected from
// the User-Agent header and the DeviceType query parameter the same way
// Z-Push/grommunio-derived servers do: substring match, Outlook first,
// then the mobile OSes, falling back to the most permissive (iOS) strategy
// for anything unrecognized.
func Select(userAgent, deviceType string) ClientStrategy {
	ua := strings.ToLower(userAgent)
	dt := strings.ToLower(deviceType)

	switch {
	case strings.Contains(ua, "outlook") || strings.Contains(dt, "windowsoutlook"):
		return Outlook{}
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "ipod"):
		return IOS{}
	case strings.Contains(ua, "android"):
		return Android{}
	default:
		return IOS{}
	}
}
