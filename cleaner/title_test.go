package cleaner

import (
	"strings"
	"testing"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain title untouched", "Effective Go", "Effective Go"},
		{"drops youtube suffix", "Never Gonna Give You Up - YouTube", "Never Gonna Give You Up"},
		{"drops github suffix", "go-rod/rod: A Chrome DevTools Protocol driver | GitHub", "go-rod/rod: A Chrome DevTools Protocol driver"},
		{"keeps longest fragment", "Short | A considerably longer and more descriptive fragment", "A considerably longer and more descriptive fragment"},
		{"hyphenated words survive", "state-of-the-art results", "state-of-the-art results"},
		{"decodes entities", "Fish &amp; Chips", "Fish & Chips"},
		{"decodes double-encoded entities", "Fish &amp;amp; Chips", "Fish & Chips"},
		{"collapses whitespace", "  too \t many\n spaces  ", "too many spaces"},
		{"steam workshop prefix", "Steam Workshop :: Cool Map", "Cool Map"},
		{"em dash separator", "An Interesting Read That Goes On — Medium", "An Interesting Read That Goes On"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTitle(tt.in); got != tt.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Cleaning must be a fixpoint: applying it twice never changes the result
// again. Cached titles get re-cleaned on the way out of some code paths.
func TestCleanTitle_Idempotent(t *testing.T) {
	inputs := []string{
		"Never Gonna Give You Up - YouTube",
		"A | B | YouTube",
		"Fish &amp;amp; Chips &amp; Mash",
		"Steam Workshop :: Cool Map - Steam Community",
		"Short | A considerably longer and more descriptive fragment | GitHub",
		"state-of-the-art results — Medium",
		"   whitespace   everywhere   ",
		strings.Repeat("long title ", 40),
		"Plain",
		"",
	}
	for _, in := range inputs {
		once := CleanTitle(in)
		twice := CleanTitle(once)
		if once != twice {
			t.Errorf("CleanTitle not idempotent for %q:\n  once:  %q\n  twice: %q", in, once, twice)
		}
	}
}

func TestCleanTitle_CapsLength(t *testing.T) {
	long := strings.Repeat("xy", 300)
	got := CleanTitle(long)
	if n := len([]rune(got)); n > maxTitleLen {
		t.Errorf("cleaned title has %d runes, cap is %d", n, maxTitleLen)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated title should end with ellipsis: %q", got)
	}
}

func TestIsBadTitle(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		domain string
		want   bool
	}{
		{"real title", "Effective Go", "go.dev", false},
		{"empty", "", "example.com", true},
		{"too short", "ab", "example.com", true},
		{"bare domain", "example.com", "example.com", true},
		{"bare domain with www", "www.example.com", "example.com", true},
		{"domain sans tld", "example", "example.com", true},
		{"challenge marker", "Just a moment...", "example.com", true},
		{"error page", "404 Not Found", "example.com", true},
		{"captcha", "Robot Check", "amazon.com", true},
		{"title containing domain word", "The example.com story", "example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBadTitle(tt.title, tt.domain); got != tt.want {
				t.Errorf("IsBadTitle(%q, %q) = %v, want %v", tt.title, tt.domain, got, tt.want)
			}
		})
	}
}

func TestIsChallengeTitle(t *testing.T) {
	challenges := []string{
		"Just a moment...",
		"Attention Required! | Cloudflare",
		"Checking your browser before accessing",
		"Are you a robot?",
		"Access Denied",
	}
	for _, title := range challenges {
		if !IsChallengeTitle(title) {
			t.Errorf("IsChallengeTitle(%q) = false, want true", title)
		}
	}

	normal := []string{"Effective Go", "A Moment in Time", ""}
	for _, title := range normal {
		if IsChallengeTitle(title) {
			t.Errorf("IsChallengeTitle(%q) = true, want false", title)
		}
	}
}
