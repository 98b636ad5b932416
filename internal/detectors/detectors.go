package detectors

import (
	"slices"
	"strings"

	"github.com/dlclark/regexp2"
)

// Names of the built-in identifiers.
const (
	Email         = "email"
	DomainName    = "domain_name"
	IMEI          = "imei"
	IPv4Address   = "ipv4_address"
	IPv6Address   = "ipv6_address"
	MACAddress    = "mac_address"
	USPhoneNumber = "us_phone_number"
	Words         = "words"

	// All selects every registered identifier.
	All = "all"
)

// neverMatch is an empty negative lookahead; it fails at every position.
const neverMatch = `(?!)`

// Definition is the canonical, uncompiled form of a detector. Compiled forms
// for each alphabet are derived from Source.
type Definition struct {
	Name       string
	Source     string
	IgnoreCase bool

	// literals, when set, are lowercase ASCII tokens at least one of which
	// must occur in a buffer for Source to match it.
	literals []string
}

// URLs are left out on purpose: they duplicate email, domain and address hits.
var builtin = []Definition{
	{Name: Email, Source: `[a-z0-9!#$%&\'*+/=?^_‘{|}~-]+(?:\.[a-z0-9!#$%&\'*+/=?^_‘{|}~-]+)*@(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z0-9](?:[a-z0-9-]*[a-z0-9])?`},
	{Name: DomainName, Source: `(((?!\-))(xn\-\-)?[a-z0-9\-_]{0,61}[a-z0-9]{1,1}\.)*(xn\-\-)?([a-z0-9\-]{1,61}|[a-z0-9\-]{1,30})\.[a-z]{2,}`},
	{Name: IMEI, Source: `[0-9]{15}(,[0-9]{15})*`},
	{Name: IPv4Address, Source: `((25[0-5]|(2[0-4]|1[0-9]|[1-9]|)[0-9])(\.(?!$)|$)){4}`},
	{Name: IPv6Address, Source: `(([0-9a-fA-F]{1,4}:){7,7}[0-9a-fA-F]{1,4}|([0-9a-fA-F]{1,4}:){1,7}:|([0-9a-fA-F]{1,4}:){1,6}:[0-9a-fA-F]{1,4}|([0-9a-fA-F]{1,4}:){1,5}(:[0-9a-fA-F]{1,4}){1,2}|([0-9a-fA-F]{1,4}:){1,4}(:[0-9a-fA-F]{1,4}){1,3}|([0-9a-fA-F]{1,4}:){1,3}(:[0-9a-fA-F]{1,4}){1,4}|([0-9a-fA-F]{1,4}:){1,2}(:[0-9a-fA-F]{1,4}){1,5}|[0-9a-fA-F]{1,4}:((:[0-9a-fA-F]{1,4}){1,6})|:((:[0-9a-fA-F]{1,4}){1,7}|:)|fe80:(:[0-9a-fA-F]{0,4}){0,4}%[0-9a-zA-Z]{1,}|::(ffff(:0{1,4}){0,1}:){0,1}((25[0-5]|(2[0-4]|1{0,1}[0-9]){0,1}[0-9])\.){3,3}(25[0-5]|(2[0-4]|1{0,1}[0-9]){0,1}[0-9])|([0-9a-fA-F]{1,4}:){1,4}:((25[0-5]|(2[0-4]|1{0,1}[0-9]){0,1}[0-9])\.){3,3}(25[0-5]|(2[0-4]|1{0,1}[0-9]){0,1}[0-9]))`},
	{Name: MACAddress, Source: `([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})`},
	{Name: USPhoneNumber, Source: `^(?:(?:\+?1\s*(?:[.-]\s*)?)?(?:\(\s*([2-9]1[02-9]|[2-9][02-8]1|[2-9][02-8][02-9])\s*\)|([2-9]1[02-9]|[2-9][02-8]1|[2-9][02-8][02-9]))\s*(?:[.-]\s*)?)?([2-9]1[02-9]|[2-9][02-9]1|[2-9][02-9]{2})\s*(?:[.-]\s*)?([0-9]{4})(?:\s*(?:#|x\.?|ext\.?|extension)\s*(\d+))?$`},
	{Name: Words, Source: neverMatch, IgnoreCase: true},
}

// Registry is an immutable, ordered set of detector definitions. Methods
// return new registries and never modify the receiver.
type Registry struct {
	defs []Definition
}

// Default returns the registry of built-in identifiers.
func Default() Registry {
	return Registry{defs: slices.Clone(builtin)}
}

// Names lists the identifiers in registry order.
func (r Registry) Names() []string {
	out := make([]string, len(r.defs))
	for i, d := range r.defs {
		out[i] = d.Name
	}
	return out
}

// Len reports the number of definitions.
func (r Registry) Len() int { return len(r.defs) }

// Select keeps the definitions named in names, in registry order. "all"
// keeps everything. Unknown names are dropped without error.
func (r Registry) Select(names []string) Registry {
	want := map[string]bool{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == All {
			return Registry{defs: slices.Clone(r.defs)}
		}
		if n != "" {
			want[n] = true
		}
	}
	var out []Definition
	for _, d := range r.defs {
		if want[d.Name] {
			out = append(out, d)
		}
	}
	return Registry{defs: out}
}

// ParseSelection splits a comma-separated identifier list.
func ParseSelection(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WithWordlist returns a registry whose "words" entry matches any of words,
// case-insensitively. The entry is added when the receiver lacks it. An
// empty list leaves the receiver's entry unchanged.
func (r Registry) WithWordlist(words []string) Registry {
	words = uniqueTokens(words)
	if len(words) == 0 {
		return Registry{defs: slices.Clone(r.defs)}
	}
	escaped := make([]string, len(words))
	for i, w := range words {
		escaped[i] = regexp2.Escape(w)
	}
	def := Definition{
		Name:       Words,
		Source:     strings.Join(escaped, "|"),
		IgnoreCase: true,
		literals:   asciiLiterals(words),
	}
	out := slices.Clone(r.defs)
	for i := range out {
		if out[i].Name == Words {
			out[i] = def
			return Registry{defs: out}
		}
	}
	return Registry{defs: append(out, def)}
}

func uniqueTokens(words []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range words {
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// asciiLiterals returns the lowercased tokens when all of them are ASCII.
// Non-ASCII tokens disable the prefilter because case folding outside ASCII
// does not map byte-for-byte.
func asciiLiterals(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		for i := 0; i < len(w); i++ {
			if w[i] >= 0x80 {
				return nil
			}
		}
		out = append(out, strings.ToLower(w))
	}
	return out
}
