// Package logtail reads back the client's own log file for the logs command.
//
// # Reading
//
// Read returns the last N lines of a file in one pass using a ring buffer of
// N entries, so memory stays bounded regardless of file size. A missing file
// yields no lines and no error.
//
// # Entries
//
// The TUI writes its log as JSON, one object per line. Parse decodes such a
// line into an Entry (time, level, message, remaining fields). Filter drops
// entries below a minimum level and keeps lines it cannot parse, such as
// panics written straight to the file.
//
// # Formatting
//
// FormatLine renders an entry as
//
//	2025/03/01 09:00:00 WARN [api] set update failed error=503 set=2
//
// using lipgloss styles for the timestamp, level and fields. Colors are
// dropped automatically when output is not a terminal.
package logtail
