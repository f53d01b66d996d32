// Package naming derives AppDaemon module, class and instance identifiers
// from blueprint ids.
package naming

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ModuleName converts a blueprint id to a python module name
func ModuleName(blueprintID string) string {
	return strings.ReplaceAll(blueprintID, "-", "_")
}

// ClassName converts a snake_case module name to PascalCase
func ClassName(moduleName string) string {
	var b strings.Builder
	for _, segment := range strings.Split(moduleName, "_") {
		runes := []rune(segment)
		if len(runes) == 0 {
			continue
		}
		b.WriteRune(unicode.ToUpper(runes[0]))
		b.WriteString(strings.ToLower(string(runes[1:])))
	}
	return b.String()
}

// ModuleAndClass returns the module/class pair used for a blueprint's instances
func ModuleAndClass(blueprintID string) (string, string) {
	module := ModuleName(blueprintID)
	return module, ClassName(module)
}

// GenerateInstanceID returns the module name of the blueprint when it is free,
// otherwise the first of <module>_2, <module>_3, ... not present in existingIDs
func GenerateInstanceID(blueprintID string, existingIDs []string) string {
	taken := make(map[string]bool, len(existingIDs))
	for _, id := range existingIDs {
		taken[id] = true
	}

	base := ModuleName(blueprintID)
	if !taken[base] {
		return base
	}
	for counter := 2; ; counter++ {
		candidate := fmt.Sprintf("%s_%d", base, counter)
		if !taken[candidate] {
			return candidate
		}
	}
}

// ValidInstanceID reports whether id is acceptable as a user supplied instance id
func ValidInstanceID(id string) bool {
	return instanceIDPattern.MatchString(id)
}
