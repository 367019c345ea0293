// Package contenttype classifies response payloads so documents can be routed
// to the right parser or rejected before parsing.
package contenttype

import (
	"bytes"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Category represents a broad content-type classification.
type Category string

const (
	HTML   Category = "html"
	XML    Category = "xml"
	JSON   Category = "json"
	Text   Category = "text"
	Binary Category = "binary"
)

// sniffLen matches the amount of data http.DetectContentType considers.
const sniffLen = 512

// Classify returns the broad content category for a content-type header value.
// Parameters (charset etc.) are ignored. Returns Binary for empty or unknown
// values.
func Classify(contentType string) Category {
	mediaType := MediaType(contentType)
	switch {
	case mediaType == "":
		return Binary
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return HTML
	case strings.Contains(mediaType, "json"):
		return JSON
	case strings.Contains(mediaType, "xml"):
		return XML
	case strings.HasPrefix(mediaType, "text/"):
		return Text
	default:
		return Binary
	}
}

// MediaType returns the lower-cased media type without parameters.
func MediaType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	return strings.ToLower(mediaType)
}

// Sniff classifies data by its leading bytes.
func Sniff(data []byte) Category {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return Classify(http.DetectContentType(data))
}

// IsBinary reports whether a payload is binary. Declared text types are
// still treated as binary when the data contains NUL bytes, or is not valid
// UTF-8 while no other charset is declared by the header, a BOM or a
// <meta> element.
func IsBinary(contentType string, data []byte) bool {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}

	cat := Classify(contentType)
	if contentType == "" {
		cat = Sniff(data)
	}
	if cat == Binary {
		return true
	}
	if utf8.Valid(trimPartialRune(head)) {
		return false
	}
	name := DeclaredCharset(contentType, data)
	return name == "" || name == "utf-8"
}

// DeclaredCharset returns the canonical name of the charset a document
// declares through its content type, a byte order mark or a <meta> element
// near the start. Returns "" when nothing is declared; the windows-1252
// fallback of content sniffing does not count as a declaration.
func DeclaredCharset(contentType string, data []byte) string {
	if _, name, certain := charset.DetermineEncoding(data, contentType); certain {
		return name
	}
	return metaCharset(data)
}

// prescanLen is how far into a document a <meta> charset is honored.
const prescanLen = 1024

func metaCharset(data []byte) string {
	if len(data) > prescanLen {
		data = data[:prescanLen]
	}
	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			tag, hasAttr := z.TagName()
			if string(tag) != "meta" || !hasAttr {
				continue
			}
			var declared, content string
			var contentTypeEquiv bool
			for more := true; more; {
				var key, val []byte
				key, val, more = z.TagAttr()
				switch string(key) {
				case "charset":
					declared = string(val)
				case "content":
					content = string(val)
				case "http-equiv":
					contentTypeEquiv = strings.EqualFold(string(val), "content-type")
				}
			}
			if declared == "" && contentTypeEquiv {
				declared = Charset(content)
			}
			if declared == "" {
				continue
			}
			if _, name := charset.Lookup(declared); name != "" {
				return name
			}
		}
	}
}

// Charset returns the lower-cased charset parameter, or "".
func Charset(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(params["charset"])
}

// IsMarkup reports whether a payload can be parsed as an HTML document:
// a markup content type (or, when undeclared, sniffed markup) and at least
// one element tag in the data.
func IsMarkup(contentType string, data []byte) bool {
	cat := Classify(contentType)
	if contentType == "" || cat == Text {
		cat = Sniff(data)
	}
	if cat != HTML && cat != XML {
		return false
	}
	return hasTag(data)
}

// hasTag reports whether data contains "<" followed by an ASCII letter.
func hasTag(data []byte) bool {
	for i := 0; i+1 < len(data); i++ {
		if data[i] != '<' {
			continue
		}
		c := data[i+1] | 0x20
		if c >= 'a' && c <= 'z' {
			return true
		}
	}
	return false
}

// trimPartialRune drops an incomplete UTF-8 sequence cut off at the end of b.
func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			break
		}
	}
	return b
}
