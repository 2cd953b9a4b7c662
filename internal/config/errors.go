package config

import "fmt"

// ConfigNotFoundError reports a missing config file with a hint for
// creating one.
type ConfigNotFoundError struct {
	Path string
	Hint string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found: %s\n\n💡 %s", e.Path, e.Hint)
}

// PermissionError reports a config file the process cannot read or
// write, with a suggested fix.
type PermissionError struct {
	Path string
	Op   string // "read" or "write"
	Fix  string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied (cannot %s config): %s\n💡 Fix: %s",
		e.Op, e.Path, e.Fix)
}

// InvalidConfigError reports malformed config content.
type InvalidConfigError struct {
	Path    string
	Message string
	Hint    string
}

func (e *InvalidConfigError) Error() string {
	msg := fmt.Sprintf("invalid config: %s\n", e.Path)
	if e.Message != "" {
		msg += e.Message + "\n"
	}
	if e.Hint != "" {
		msg += "💡 " + e.Hint
	}
	return msg
}
