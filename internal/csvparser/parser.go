// =============================================================================
// Bartscher Feed Generator - Delimited Text Parser
// =============================================================================
//
// Both remote documents the pipeline downloads are delimited text:
//   - the vendor availability list (tab separated, header on line 1)
//   - the CNB daily fixing (pipe separated, date banner on line 1,
//     header on line 2)
//
// This module turns such a document into a header plus raw rows. Callers
// locate columns by header name and apply their own row rules.
//
// FEATURES:
//   - Configurable delimiter and header line
//   - Charset decoding via golang.org/x/text (feeds are not always UTF-8)
//   - Rows of any width are accepted; short rows are the caller's concern
//   - No quoting: a '"' is literal text (vendor names use it for inches)
//   - Blank lines are ignored and do not count as records
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ErrEmpty is returned when the document has no header line.
var ErrEmpty = errors.New("document is empty")

// maxLineSize caps a single line of a document.
const maxLineSize = 1 << 20

// =============================================================================
// SETTINGS
// =============================================================================

// Settings controls how a document is parsed.
type Settings struct {
	// Delimiter separates fields. "tab" and "\t" both mean a tab.
	// Default: ","
	Delimiter string

	// Encoding is the document charset.
	// Default: "utf-8"
	Encoding string

	// HeaderRow is the 1-based record holding the column names. Records
	// before it are skipped.
	// Default: 1
	HeaderRow int
}

// =============================================================================
// TABLE
// =============================================================================

// Table is a parsed delimited document.
type Table struct {
	// Headers contains the trimmed column names.
	Headers []string

	// Rows contains the records after the header, untrimmed.
	// Rows may be shorter or longer than Headers.
	Rows [][]string
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	name = strings.TrimSpace(name)
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseBytes parses an in-memory document.
func ParseBytes(data []byte, settings Settings) (*Table, error) {
	return Parse(bytes.NewReader(data), settings)
}

// Parse reads a delimited document.
//
// PARAMETERS:
//   - r: The raw document.
//   - settings: Delimiter, charset and header position.
//
// RETURNS:
//   - The header and data rows.
//   - ErrEmpty if the header line is missing, or a read error.
func Parse(r io.Reader, settings Settings) (*Table, error) {
	dec, err := decoder(settings.Encoding)
	if err != nil {
		return nil, err
	}
	if dec != nil {
		r = transform.NewReader(r, dec.NewDecoder())
	}

	delimiter := delimiterOf(settings.Delimiter)

	headerRow := settings.HeaderRow
	if headerRow <= 0 {
		headerRow = 1
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	table := &Table{}
	record := 0

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		record++

		switch {
		case record < headerRow:
			continue
		case record == headerRow:
			table.Headers = cleanHeaders(strings.Split(line, delimiter))
		default:
			table.Rows = append(table.Rows, strings.Split(line, delimiter))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read record %d: %w", record+1, err)
	}

	if table.Headers == nil {
		return nil, ErrEmpty
	}

	return table, nil
}

// delimiterOf resolves the configured delimiter name.
func delimiterOf(name string) string {
	switch name {
	case "\\t", "\t", "tab", "TAB":
		return "\t"
	case "|", "pipe", "PIPE":
		return "|"
	case ";", "semicolon":
		return ";"
	case "":
		return ","
	default:
		return name
	}
}

// cleanHeaders trims header names and drops a UTF-8 byte order mark.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, "\ufeff")
		}
		cleaned[i] = strings.TrimSpace(header)
	}
	return cleaned
}

// SupportedEncoding reports whether name is a charset Parse can decode.
func SupportedEncoding(name string) bool {
	_, err := decoder(name)
	return err == nil
}

// decoder returns the charset decoder for name, or nil for UTF-8.
func decoder(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "windows-1250", "cp1250":
		return charmap.Windows1250, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, nil
	case "iso-8859-2", "latin2":
		return charmap.ISO8859_2, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}
