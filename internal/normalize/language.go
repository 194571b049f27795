package normalize

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// UnknownLanguage is returned for codes that cannot be resolved
const UnknownLanguage = "Unknown"

// MARC records use ISO 639-2/B codes; these are the ones that differ from 639-2/T
var bibliographicCodes = map[string]string{
	"alb": "sqi", "arm": "hye", "baq": "eus", "bur": "mya", "chi": "zho",
	"cze": "ces", "dut": "nld", "fre": "fra", "geo": "kat", "ger": "deu",
	"gre": "ell", "ice": "isl", "mac": "mkd", "mao": "mri", "may": "msa",
	"per": "fas", "rum": "ron", "slo": "slk", "tib": "bod", "wel": "cym",
}

// LanguageName maps an ISO 639 code (two or three letters) to its name in the
// requested display locale, falling back to English for unusable locales.
func LanguageName(code, locale string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return UnknownLanguage
	}
	if t, ok := bibliographicCodes[code]; ok {
		code = t
	}

	tag, err := language.Parse(code)
	if err != nil || tag == language.Und {
		return UnknownLanguage
	}
	base, conf := tag.Base()
	if conf == language.No {
		return UnknownLanguage
	}

	displayTag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil || displayTag == language.Und {
		displayTag = language.English
	}

	english := display.Languages(language.English)
	namer := display.Languages(displayTag)
	if namer == nil {
		namer = english
	}
	name := namer.Name(base)
	if name == "" {
		name = english.Name(base)
	}
	if name == "" {
		return UnknownLanguage
	}
	return name
}

// LanguageNames resolves each code and drops duplicates and unknowns
func LanguageNames(codes []string, locale string) []string {
	var out []string
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		name := LanguageName(c, locale)
		if name == UnknownLanguage || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
