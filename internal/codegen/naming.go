package codegen

import "strings"

// Mangle implements the naming policy of spec §4.6: the full name of a
// declaration is the dot-path from workspace to leaf with "." -> "_",
// spaces and parentheses -> "_", and "*" -> "P". The root workspace
// "core" is mangled to "_" to avoid collisions with host keywords.
func Mangle(path string) string {
	if path == "core" {
		return "_"
	}
	path = strings.TrimPrefix(path, "core.")
	r := strings.NewReplacer(
		".", "_",
		" ", "_",
		"(", "_",
		")", "_",
		"*", "P",
	)
	return r.Replace(path)
}

// Join appends a leaf segment to a dot-path.
func Join(path, leaf string) string {
	if path == "" {
		return leaf
	}
	return path + "." + leaf
}
