package domain

import "testing"

func TestNewSyncState_StartsAtReset(t *testing.T) {
	s := NewSyncState(1, "dev1", "2")
	if s.CurrentSyncKey != ResetSyncKey {
		t.Errorf("CurrentSyncKey = %q, want %q", s.CurrentSyncKey, ResetSyncKey)
	}
	if s.ValidateClientKey("0") != KeyReset {
		t.Error("fresh state should classify \"0\" as KeyReset")
	}
}

func TestValidateClientKey(t *testing.T) {
	s := NewSyncState(1, "dev1", "2")
	s.CurrentSyncKey = "{abc}5"
	s.StageBatch("{abc}6", []int64{10, 11}, 11)

	tests := []struct {
		name string
		key  string
		want KeyClass
	}{
		{"reset", "0", KeyReset},
		{"advance (current)", "{abc}5", KeyAdvance},
		{"resend (pending)", "{abc}6", KeyResend},
		{"invalid/unknown", "{xyz}99", KeyInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.ValidateClientKey(tt.key); got != tt.want {
				t.Errorf("ValidateClientKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestStageBatch_ReplacesPriorPending(t *testing.T) {
	s := NewSyncState(1, "dev1", "2")
	s.CurrentSyncKey = "{abc}1"
	s.StageBatch("{abc}2", []int64{1, 2}, 2)
	s.StageBatch("{abc}2", []int64{1, 2, 3}, 3)

	if len(s.PendingItemIDs) != 3 {
		t.Errorf("PendingItemIDs has %d entries, want 3 (second stage should replace, not merge)", len(s.PendingItemIDs))
	}
	if s.PendingMaxItemID != 3 {
		t.Errorf("PendingMaxItemID = %d, want 3", s.PendingMaxItemID)
	}
}

func TestConfirmPending(t *testing.T) {
	s := NewSyncState(1, "dev1", "2")
	s.CurrentSyncKey = "{abc}1"
	s.StageBatch("{abc}2", []int64{10, 11}, 11)

	s.ConfirmPending()

	if s.HasPending {
		t.Error("HasPending should be false after ConfirmPending")
	}
	if s.CurrentSyncKey != "{abc}2" {
		t.Errorf("CurrentSyncKey = %q, want %q", s.CurrentSyncKey, "{abc}2")
	}
	if s.LastAckedItemID != 11 {
		t.Errorf("LastAckedItemID = %d, want 11", s.LastAckedItemID)
	}
	if !s.IsAcked(10) || !s.IsAcked(11) {
		t.Error("both items from the confirmed batch should be acked")
	}
}

func TestConfirmPending_NoOpWithoutPending(t *testing.T) {
	s := NewSyncState(1, "dev1", "2")
	s.CurrentSyncKey = "{abc}1"
	s.ConfirmPending()
	if s.CurrentSyncKey != "{abc}1" {
		t.Errorf("CurrentSyncKey changed unexpectedly to %q", s.CurrentSyncKey)
	}
}

func TestDiscardPending(t *testing.T) {
	s := NewSyncState(1, "dev1", "2")
	s.CurrentSyncKey = "{abc}1"
	s.StageBatch("{abc}2", []int64{10}, 10)

	s.DiscardPending()

	if s.HasPending {
		t.Error("HasPending should be false after DiscardPending")
	}
	if s.CurrentSyncKey != "{abc}1" {
		t.Errorf("CurrentSyncKey should be unchanged by discard, got %q", s.CurrentSyncKey)
	}
	if s.IsAcked(10) {
		t.Error("discarded pending items must not be acked")
	}
}

func TestReset_ClearsEverything(t *testing.T) {
	s := NewSyncState(1, "dev1", "2")
	s.CurrentSyncKey = "{abc}5"
	s.LastAckedItemID = 99
	s.AckedItemIDs[1] = struct{}{}
	s.StageBatch("{abc}6", []int64{2}, 2)

	s.Reset()

	if s.CurrentSyncKey != ResetSyncKey {
		t.Errorf("CurrentSyncKey = %q, want %q", s.CurrentSyncKey, ResetSyncKey)
	}
	if s.LastAckedItemID != 0 {
		t.Errorf("LastAckedItemID = %d, want 0", s.LastAckedItemID)
	}
	if len(s.AckedItemIDs) != 0 {
		t.Errorf("AckedItemIDs has %d entries, want 0", len(s.AckedItemIDs))
	}
	if s.HasPending {
		t.Error("HasPending should be false after Reset")
	}
}
