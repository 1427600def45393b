package graph

import "fmt"

// FileID returns the stable ID of a file node.
func FileID(relPath string) string {
	return fmt.Sprintf("file:%s", relPath)
}

// ClassID returns the stable ID of a class node.
func ClassID(relPath, className string) string {
	return fmt.Sprintf("class:%s:%s", relPath, className)
}

// MethodID returns the stable ID of a method node.
func MethodID(relPath, className, methodName string) string {
	return fmt.Sprintf("class:%s:%s.%s", relPath, className, methodName)
}

// FunctionID returns the stable ID of a non-method callable, keyed by
// its source span so that anonymous and duplicate-named functions in
// the same file remain distinguishable.
func FunctionID(relPath string, startLine, startCol, endLine, endCol int) string {
	return fmt.Sprintf("%s:%d:%d-%d:%d", relPath, startLine, startCol, endLine, endCol)
}

// ExternalID returns the stable ID of a foreign-module node.
func ExternalID(moduleName string) string {
	return fmt.Sprintf("external:%s", moduleName)
}

// PlaceholderID returns the stable ID of an unresolved call-site node.
// calleeName is "anonymous" when the call has no static name.
func PlaceholderID(relPath, calleeName string, line int) string {
	if calleeName == "" {
		calleeName = "anonymous"
	}
	return fmt.Sprintf("placeholder::%s::%s::%d", relPath, calleeName, line)
}

// IsPlaceholder reports whether id names a placeholder node.
func IsPlaceholder(id string) bool {
	return len(id) >= len("placeholder::") && id[:len("placeholder::")] == "placeholder::"
}

// IsExternal reports whether id names an external-module node.
func IsExternal(id string) bool {
	return len(id) >= len("external:") && id[:len("external:")] == "external:"
}
