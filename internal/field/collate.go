package field

import "golang.org/x/text/language"

// collateLanguage pins string ordering to the root (language-neutral)
// collation so Field.Compare is deterministic across locales — the engine
// has no notion of a per-session locale.
func collateLanguage() language.Tag {
	return language.Und
}
