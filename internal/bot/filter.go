package bot

import (
	"log"
	"strings"
)

// Filter decides which events start a turn.
type Filter struct {
	keyword   string
	allowlist []string
}

func NewFilter(keyword string, allowlist []string) *Filter {
	allow := make([]string, 0, len(allowlist))
	for _, a := range allowlist {
		if a = digitsOnly(a); a != "" {
			allow = append(allow, a)
		}
	}
	return &Filter{keyword: strings.ToLower(keyword), allowlist: allow}
}

// Accept reports whether ev is addressed to the bot by an allowed sender.
func (f *Filter) Accept(ev Event) bool {
	if ev.FromMe {
		return false
	}
	if !strings.Contains(strings.ToLower(ev.Body), f.keyword) {
		return false
	}
	num := ev.SenderNumber()
	if !f.Allowed(num) {
		log.Printf("bot: ignoring %s, not on allowlist", num)
		return false
	}
	return true
}

// Allowed matches number against the allowlist. An entry also matches a
// number it ends, provided at most a country code (up to three digits) is
// left over, so 81235581851 admits 6281235581851.
func (f *Filter) Allowed(number string) bool {
	number = digitsOnly(number)
	if number == "" {
		return false
	}
	for _, a := range f.allowlist {
		if a != "" && strings.HasSuffix(number, a) && len(number)-len(a) <= maxCountryCode {
			return true
		}
	}
	return false
}

const maxCountryCode = 3

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
