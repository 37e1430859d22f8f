package highlight

import "strings"

// CountLines returns the number of source lines in code.
//
// "\r\n", "\n" and "\r" all count as one line break. A final line break does
// not start a new line, so "a\nb\nc" and "a\nb\nc\n" both have three lines
// and the empty string has none.
func CountLines(code string) int {
	if code == "" {
		return 0
	}
	breaks := 0
	for i := 0; i < len(code); i++ {
		switch code[i] {
		case '\n':
			breaks++
		case '\r':
			breaks++
			if i+1 < len(code) && code[i+1] == '\n' {
				i++
			}
		}
	}
	last := code[len(code)-1]
	if last == '\n' || last == '\r' {
		return breaks
	}
	return breaks + 1
}

// LineMarkers returns one line-number marker per line, 1-indexed.
func LineMarkers(n int) []string {
	if n <= 0 {
		return nil
	}
	markers := make([]string, n)
	for i := range markers {
		markers[i] = "<span>" + FormatNumber(uint32(i+1)) + "</span>"
	}
	return markers
}

// JoinMarkers joins line-number markers with line breaks, the layout of
// the line-number column.
func JoinMarkers(markers []string) string {
	return strings.Join(markers, "<br />")
}

// FormatNumber converts a number to a string.
func FormatNumber(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte // Max 10 digits for uint32
	i := len(buf)

	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}

	return string(buf[i:])
}

// normalizeNewlines rewrites "\r\n" and "\r" to "\n".
func normalizeNewlines(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
