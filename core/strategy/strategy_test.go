package strategy

import "testing"

func TestSelect(t *testing.T) {
	tests := []struct {
		name       string
		userAgent  string
		deviceType string
		want       string
	}{
		{"outlook by user agent", "Outlook/16.0 (Windows)", "", "Outlook"},
		{"outlook by device type", "SomeClient/1.0", "WindowsOutlook15", "Outlook"},
		{"iphone", "Apple-iPhone13C2/1902.82", "iPhone", "iOS"},
		{"ipad", "Apple-iPad/1902.82", "iPad", "iOS"},
		{"android", "Android-Mail/1.0", "Android", "Android"},
		{"unknown falls back to iOS", "curl/8.0", "", "iOS"},
		{"case insensitive", "OUTLOOK/16.0", "", "Outlook"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.userAgent, tt.deviceType).Name()
			if got != tt.want {
				t.Errorf("Select(%q, %q).Name() = %q, want %q", tt.userAgent, tt.deviceType, got, tt.want)
			}
		})
	}
}

func TestOutlook_NeedsEmptyInitialResponse(t *testing.T) {
	s := Outlook{}
	if !s.NeedsEmptyInitialResponse("0") {
		t.Error("Outlook must require an empty response on SyncKey 0")
	}
	if s.NeedsEmptyInitialResponse("1") {
		t.Error("Outlook must not require an empty response past SyncKey 0")
	}
}

func TestOutlook_UsesPendingConfirmation(t *testing.T) {
	if Outlook{}.UsesPendingConfirmation() {
		t.Error("Outlook must commit batches immediately, not stage them")
	}
	if !(IOS{}).UsesPendingConfirmation() {
		t.Error("iOS must use two-phase commit")
	}
	if !(Android{}).UsesPendingConfirmation() {
		t.Error("Android must use two-phase commit")
	}
}

func TestTruncationSize_MIMEAlwaysCapped(t *testing.T) {
	strategies := []ClientStrategy{Outlook{}, IOS{}, Android{}}
	for _, s := range strategies {
		t.Run(s.Name(), func(t *testing.T) {
			if got := s.TruncationSize(4, 0, false); got != mimeCap {
				t.Errorf("TruncationSize(4, 0, false) = %d, want %d", got, mimeCap)
			}
			if got := s.TruncationSize(4, 10_000_000, false); got != mimeCap {
				t.Errorf("TruncationSize(4, huge, false) = %d, want %d", got, mimeCap)
			}
		})
	}
}

func TestOutlook_TruncationSize_TextFloor(t *testing.T) {
	s := Outlook{}
	if got := s.TruncationSize(1, 500, false); got != minTextTruncation {
		t.Errorf("TruncationSize(1, 500, false) = %d, want floor %d", got, minTextTruncation)
	}
	if got := s.TruncationSize(1, 65536, false); got != 65536 {
		t.Errorf("TruncationSize(1, 65536, false) = %d, want 65536 (honored as-is)", got)
	}
	if got := s.TruncationSize(1, 0, false); got != 0 {
		t.Errorf("TruncationSize(1, 0, false) = %d, want 0 (unlimited)", got)
	}
}

func TestIOS_TruncationSize_HonorsRequest(t *testing.T) {
	s := IOS{}
	if got := s.TruncationSize(1, 500, false); got != 500 {
		t.Errorf("TruncationSize(1, 500, false) = %d, want 500 (no floor for iOS)", got)
	}
}

func TestWindowSizes(t *testing.T) {
	tests := []struct {
		s                      ClientStrategy
		wantDefault, wantMax int
	}{
		{Outlook{}, 3, 512},
		{IOS{}, 50, 100},
		{Android{}, 25, 100},
	}
	for _, tt := range tests {
		t.Run(tt.s.Name(), func(t *testing.T) {
			if got := tt.s.DefaultWindowSize(); got != tt.wantDefault {
				t.Errorf("DefaultWindowSize() = %d, want %d", got, tt.wantDefault)
			}
			if got := tt.s.MaxWindowSize(); got != tt.wantMax {
				t.Errorf("MaxWindowSize() = %d, want %d", got, tt.wantMax)
			}
		})
	}
}
