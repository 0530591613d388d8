package remote

import (
	"os/exec"
	"testing"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: "''"},
		{name: "safe word", in: "instance-0001", want: "instance-0001"},
		{name: "safe path", in: "/etc/nova/nova.conf", want: "/etc/nova/nova.conf"},
		{name: "spaces", in: "virsh dumpxml instance-0001", want: "'virsh dumpxml instance-0001'"},
		{name: "single quote", in: "it's", want: `'it'"'"'s'`},
		{name: "dollar", in: "$HOME", want: "'$HOME'"},
		{name: "semicolon", in: "a;b", want: "'a;b'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Quote(tt.in); got != tt.want {
				t.Errorf("Quote(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuoteArgs(t *testing.T) {
	got := QuoteArgs("cell_v2", "list_cells", "--verbose")
	if got != "cell_v2 list_cells --verbose" {
		t.Errorf("QuoteArgs() = %s", got)
	}

	got = QuoteArgs("db", "a b")
	if got != "db 'a b'" {
		t.Errorf("QuoteArgs() = %s", got)
	}
}

// trickyStrings are inputs a shell would split, expand or reinterpret if
// they were not quoted.
var trickyStrings = []string{
	"",
	"plain",
	"two words",
	"it's",
	`"double"`,
	"$HOME",
	"${PATH}",
	"a;b",
	"`id`",
	"$(echo pwned)",
	"*",
	"tab\there",
	"new\nline",
	`back\slash`,
	"'",
	"''",
	"a | b && c || d > /dev/null",
	"-n",
}

func lookShell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("no POSIX shell available")
	}
	return sh
}

func TestQuote_ShellRoundTrip(t *testing.T) {
	sh := lookShell(t)

	for _, s := range trickyStrings {
		t.Run(s, func(t *testing.T) {
			out, err := exec.Command(sh, "-c", "printf %s "+Quote(s)).Output()
			if err != nil {
				t.Fatalf("shell error = %v", err)
			}
			if string(out) != s {
				t.Errorf("shell received %q, want %q", out, s)
			}
		})
	}
}

func TestChain_ShellRoundTrip(t *testing.T) {
	sh := lookShell(t)

	// Three nested shells, each receiving the next as one quoted token.
	chain := Chain{}.
		With(Layer(sh + " -c")).
		With(Layer(sh + " -c")).
		With(Layer(sh + " -c"))

	for _, s := range trickyStrings {
		t.Run(s, func(t *testing.T) {
			wrapped := chain.Wrap("printf %s " + Quote(s))
			out, err := exec.Command(sh, "-c", wrapped).Output()
			if err != nil {
				t.Fatalf("shell error = %v (command %s)", err, wrapped)
			}
			if string(out) != s {
				t.Errorf("innermost shell received %q, want %q", out, s)
			}
		})
	}
}
