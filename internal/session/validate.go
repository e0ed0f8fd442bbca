package session

import (
	"fmt"
	"regexp"
)

// A name doubles as a directory, a socket file and a --session argument, so
// it may not start with '-' or '_'.
var nameRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidateName reports whether name can be used as a session name.
func ValidateName(name string) error {
	if nameRegexp.MatchString(name) {
		return nil
	}
	return fmt.Errorf("invalid session name %q: 1-64 lowercase letters, digits, '_' or '-', starting with a letter or digit", name)
}
