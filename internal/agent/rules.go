package agent

import "regexp"

// Rules is an accept/reject pattern pair. Reject always wins; an empty
// accept list allows everything not rejected.
type Rules struct {
	Accept []*regexp.Regexp
	Reject []*regexp.Regexp
}

// Allow reports whether s passes the rules.
func (r Rules) Allow(s string) bool {
	for _, re := range r.Reject {
		if re.MatchString(s) {
			return false
		}
	}
	if len(r.Accept) == 0 {
		return true
	}
	for _, re := range r.Accept {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// AcceptExact appends an accept pattern matching s and nothing else.
func (r *Rules) AcceptExact(s string) {
	r.Accept = append(r.Accept, regexp.MustCompile("^"+regexp.QuoteMeta(s)+"$"))
}
