package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var validPathRe = regexp.MustCompile(`^/?[a-zA-Z0-9_%@ \-./]{1,256}$`)

// ValidateNodePath checks that a node path contains only characters a
// scene-tree path can carry, before it crosses to the host.
func ValidateNodePath(path string) error {
	if path == "" {
		return fmt.Errorf("node path is empty")
	}
	if !validPathRe.MatchString(path) {
		return fmt.Errorf("invalid node path %q: only [a-zA-Z0-9_%%@ -./] allowed, max 256 chars", path)
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("invalid node path %q: '..' not allowed", path)
	}
	return nil
}
