package run

import (
	"strings"
	"testing"
)

func TestCanAdmit(t *testing.T) {
	if result := CanAdmit(""); !result.Allowed {
		t.Errorf("CanAdmit with no active run should be allowed, got %+v", result)
	}

	result := CanAdmit("manual-2026-02-09-2026-02-16-1771234200")
	if result.Allowed {
		t.Error("CanAdmit with an active run should be rejected")
	}
	if !strings.Contains(result.Reason, "busy") {
		t.Errorf("rejection reason should mention busy, got %q", result.Reason)
	}
	if result.Error() == nil {
		t.Error("rejected guard should produce an error")
	}
}

func TestCanPurge(t *testing.T) {
	if result := CanPurge(""); !result.Allowed {
		t.Errorf("CanPurge with no active run should be allowed, got %+v", result)
	}
	if result := CanPurge("RUN-1"); result.Allowed {
		t.Error("CanPurge with an active run should be rejected")
	}
}

func TestCanConfirmPurge(t *testing.T) {
	for _, token := range []string{"delete", "DELETE", "Delete"} {
		if result := CanConfirmPurge(token); !result.Allowed {
			t.Errorf("token %q should be accepted, got %+v", token, result)
		}
	}
	for _, token := range []string{"", "yes", "drop", "delet"} {
		if result := CanConfirmPurge(token); result.Allowed {
			t.Errorf("token %q should be rejected", token)
		}
	}
}
