package domain

import (
	"fmt"
	"unicode/utf8"
)

// Script length bounds, in characters (runes).
const (
	ScriptMinChars = 1
	ScriptMaxChars = 1000
)

// ValidateScript checks the script length bounds before any provider call is
// attempted. Length is counted in runes so multi-byte text is not penalized.
func ValidateScript(script string) error {
	n := utf8.RuneCountInString(script)
	if n < ScriptMinChars {
		return fmt.Errorf("%w: script is empty", ErrInvalidScript)
	}
	if n > ScriptMaxChars {
		return fmt.Errorf("%w: script is %d characters, max is %d", ErrInvalidScript, n, ScriptMaxChars)
	}
	return nil
}
