package agent

import (
	"regexp"
	"testing"
)

func TestRulesEmptyAllowsEverything(t *testing.T) {
	var r Rules
	if !r.Allow("example.com") {
		t.Error("empty rules rejected input")
	}
}

func TestRulesRejectWins(t *testing.T) {
	r := Rules{
		Accept: []*regexp.Regexp{regexp.MustCompile(`example\.com`)},
		Reject: []*regexp.Regexp{regexp.MustCompile(`private`)},
	}
	if !r.Allow("www.example.com") {
		t.Error("accepted host rejected")
	}
	if r.Allow("private.example.com") {
		t.Error("reject pattern did not win over accept")
	}
	if r.Allow("other.org") {
		t.Error("non-matching input allowed despite accept list")
	}
}

func TestAcceptExact(t *testing.T) {
	var r Rules
	r.AcceptExact("example.com")
	if !r.Allow("example.com") {
		t.Error("exact host rejected")
	}
	for _, s := range []string{"sub.example.com", "example.com.evil.org", "examplexcom"} {
		if r.Allow(s) {
			t.Errorf("Allow(%q) = true, want false", s)
		}
	}
}
