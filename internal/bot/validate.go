package bot

import (
	"strconv"
	"strings"
)

// NormalizePhone reduces user phone input to its 10-digit national
// form.  Accepted shapes: bare 10 digits, 11 digits with a leading
// "7" or "8", or "+7" followed by 10 digits; spaces, dashes and
// parentheses are ignored.  Returns false for anything else so the
// dialog re-prompts instead of advancing.
func NormalizePhone(input string) (string, bool) {
	var digits strings.Builder
	for _, r := range strings.TrimSpace(input) {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
			// separator, ignore
		default:
			return "", false
		}
	}
	d := digits.String()
	switch {
	case len(d) == 10:
		return d, true
	case len(d) == 11 && (d[0] == '7' || d[0] == '8'):
		return d[1:], true
	}
	return "", false
}

// ParseAge parses a child's age as a decimal number, accepting
// either a comma or a dot as the separator ("5,5" and "5.5" both
// parse to 5.5).
func ParseAge(input string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(input), ",", ".")
	age, err := strconv.ParseFloat(s, 64)
	if err != nil || age <= 0 || age > 18 {
		return 0, false
	}
	return age, true
}

// ParseQty parses a party-size answer and checks it against the
// admin-configured bounds.
func ParseQty(input string, min, max int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < min || n > max {
		return 0, false
	}
	return n, true
}

// validEmail is deliberately loose: the payment gateway does the
// authoritative validation, this only catches obvious typos.
func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t")
}
