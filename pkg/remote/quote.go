package remote

import (
	"strings"

	"github.com/alessio/shellescape"
)

// Quote returns s as a single shell token that a POSIX shell reads back as
// exactly s. Strings made only of safe characters are returned unchanged,
// the empty string becomes '' and anything else is single-quoted.
func Quote(s string) string {
	return shellescape.Quote(s)
}

// QuoteArgs quotes every argument and joins them with single spaces.
func QuoteArgs(args ...string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = Quote(arg)
	}
	return strings.Join(quoted, " ")
}
