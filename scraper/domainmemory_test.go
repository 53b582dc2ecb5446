package scraper

import (
	"testing"
	"time"
)

func TestDomainMemory_MarkAndCheck(t *testing.T) {
	dm := NewDomainMemory(time.Hour)
	defer dm.Stop()

	if dm.NeedsBrowser("blocked.example.com") {
		t.Error("fresh memory should not flag any host")
	}

	dm.MarkBrowser("blocked.example.com")
	if !dm.NeedsBrowser("blocked.example.com") {
		t.Error("marked host not flagged")
	}
	if dm.NeedsBrowser("other.example.com") {
		t.Error("unrelated host flagged")
	}
}

func TestDomainMemory_Expiry(t *testing.T) {
	dm := NewDomainMemory(10 * time.Millisecond)
	defer dm.Stop()

	dm.MarkBrowser("blocked.example.com")
	time.Sleep(20 * time.Millisecond)
	if dm.NeedsBrowser("blocked.example.com") {
		t.Error("expired entry still flagged")
	}
}

func TestDomainMemory_Forget(t *testing.T) {
	dm := NewDomainMemory(time.Hour)
	defer dm.Stop()

	dm.MarkBrowser("blocked.example.com")
	dm.Forget("blocked.example.com")
	if dm.NeedsBrowser("blocked.example.com") {
		t.Error("forgotten host still flagged")
	}
}

func TestDomainMemory_ReMarkExtendsExpiry(t *testing.T) {
	dm := NewDomainMemory(30 * time.Millisecond)
	defer dm.Stop()

	dm.MarkBrowser("blocked.example.com")
	time.Sleep(20 * time.Millisecond)
	dm.MarkBrowser("blocked.example.com")
	time.Sleep(20 * time.Millisecond)
	if !dm.NeedsBrowser("blocked.example.com") {
		t.Error("re-marked host expired from the original deadline")
	}
}
