package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// WebsiteEnvPrefix is the prefix of environment variables that map a website
// name to its PageVitals website ID.
const WebsiteEnvPrefix = "PAGEVITALS_WEBSITE_"

// ID is an opaque PageVitals identifier.
// The API is not consistent about encoding IDs as strings or numbers, so ID
// accepts both and always holds the textual form.
type ID string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier text.
func (id ID) String() string {
	return string(id)
}

// Website is a site monitored by PageVitals.
type Website struct {
	// ID is the opaque website identifier used in API paths.
	ID ID `json:"id"`

	// Domain is the monitored domain, e.g. "www.example.com".
	// PageVitals may return internationalized domains in punycode form.
	Domain string `json:"domain"`

	// Name is an optional human-readable label.
	Name string `json:"name,omitempty"`
}

// DisplayName returns the human-readable name of the website.
// Name wins over Domain; punycode domains are shown in Unicode form.
func (w Website) DisplayName() string {
	if name := strings.TrimSpace(w.Name); name != "" {
		return name
	}
	domain := strings.TrimSpace(w.Domain)
	if unicodeDomain, err := idna.Display.ToUnicode(domain); err == nil && unicodeDomain != "" {
		return unicodeDomain
	}
	return domain
}

// EnvName returns the <NAME> part of the website's environment variable.
// A domain whose Unicode form keeps letters outside A-Z after folding, such
// as a Cyrillic or CJK domain, is named after its punycode form instead.
// Websites whose display name has no usable characters fall back to the ID.
func (w Website) EnvName() string {
	label := w.DisplayName()
	if strings.TrimSpace(w.Name) == "" && hasNonLatinLetters(foldDiacritics(label)) {
		if ascii, err := idna.ToASCII(strings.TrimSpace(w.Domain)); err == nil && ascii != "" {
			label = ascii
		}
	}
	if name := NormalizeEnvName(label); name != "" {
		return name
	}
	return NormalizeEnvName(w.ID.String())
}

// EnvKey returns the full environment variable name for the website,
// e.g. "PAGEVITALS_WEBSITE_WWW_EXAMPLE_COM".
func (w Website) EnvKey() string {
	return WebsiteEnvPrefix + w.EnvName()
}

// diacriticFolder strips combining marks after canonical decomposition,
// turning "Café" into "Cafe".
var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeEnvName converts an arbitrary label into a string usable as part
// of an environment variable name. Diacritics are folded, letters are
// upper-cased, and every run of characters outside [A-Z0-9] collapses into a
// single underscore. Leading and trailing underscores are trimmed.
func NormalizeEnvName(label string) string {
	folded := foldDiacritics(label)

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToUpper(folded) {
		isAlnum := (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func foldDiacritics(s string) string {
	folded, _, err := transform.String(diacriticFolder, s)
	if err != nil {
		return s
	}
	return folded
}

func hasNonLatinLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && r > unicode.MaxASCII {
			return true
		}
	}
	return false
}

// AssignEnvNames returns the environment variable name for each website in
// order. Websites whose names collide get "_2", "_3", ... suffixes in the
// order they appear.
func AssignEnvNames(websites []Website) []string {
	names := make([]string, len(websites))
	used := make(map[string]bool, len(websites))
	for i, w := range websites {
		base := w.EnvName()
		name := base
		for n := 2; used[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// ConfiguredWebsite is a website resolved from the environment:
// the <NAME> of PAGEVITALS_WEBSITE_<NAME> and its ID.
type ConfiguredWebsite struct {
	Name string
	ID   ID
}
