// Package report renders valuation reports for people and tools.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text output for terminal display
//   - MarkdownWriter: Markdown with a Mermaid chart for sharing
//   - JSONWriter: the report's JSON wire format for tool integration
//
// Writers implement the Writer interface, so they can be used
// interchangeably and composed with MultiWriter.
package report
