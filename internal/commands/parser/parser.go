package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/DeprecatedLuar/sqldevcfg/internal/connections"
)

var (
	// Attribute names: a letter or underscore, then letters, digits, dot, dash, underscore
	keyRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)
)

// ExtractFolder pulls a #Folder argument out of args
// Returns the folder (last one wins) and the remaining args
// Example: ["ConnName=prod", "#Production"] -> ("Production", ["ConnName=prod"], true)
func ExtractFolder(args []string) (folder string, remaining []string, found bool) {
	for _, arg := range args {
		if strings.HasPrefix(arg, "#") && len(arg) > 1 {
			folder = strings.TrimPrefix(arg, "#")
			found = true
		} else {
			remaining = append(remaining, arg)
		}
	}
	return folder, remaining, found
}

// ParseAttributeArgs parses key=value arguments into ordered attributes
// A #Folder argument sets the folder pseudo-attribute
// Example: ["ConnName=prod", "user=hr", "#Production"]
//
//	-> {ConnName: prod, user: hr, folder: Production}
func ParseAttributeArgs(args []string) (connections.Attributes, error) {
	folder, rest, hasFolder := ExtractFolder(args)

	var attrs connections.Attributes
	for _, arg := range rest {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid argument %q: expected key=value", arg)
		}
		if err := ValidateKey(key); err != nil {
			return nil, err
		}
		attrs.Set(key, value)
	}

	if hasFolder {
		attrs.Set(connections.KeyFolder, folder)
	}
	return attrs, nil
}

// ValidateKey checks if an attribute name is valid
func ValidateKey(key string) error {
	if !keyRegex.MatchString(key) {
		return fmt.Errorf("invalid attribute name %q: must start with a letter or underscore", key)
	}
	return nil
}

// ParseIndex reports whether arg is a result number from the last list or find
func ParseIndex(arg string) (int, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// JoinArgs joins arguments with spaces, useful for reconstructing parsed content
func JoinArgs(args []string) string {
	return strings.Join(args, " ")
}
