package extract

import (
	"bytes"
	"fmt"

	"github.com/usestring/quietsearch/pkg/contenttype"
	"github.com/usestring/quietsearch/pkg/types"
)

// MalformedDocumentError means the payload could not be read as a result
// page at all. Individual unreadable result blocks never produce it.
type MalformedDocumentError struct {
	Reason      string
	StatusCode  int
	ContentType string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed upstream document: %s (status %d, content-type %q)", e.Reason, e.StatusCode, e.ContentType)
}

func malformed(doc *types.RawDocument, reason string) *MalformedDocumentError {
	return &MalformedDocumentError{Reason: reason, StatusCode: doc.StatusCode, ContentType: doc.ContentType}
}

var closingHTML = []byte("</html>")

// checkDocument rejects payloads that are empty, binary, not markup, or cut
// off before the closing html tag. Result pages always close the document,
// so a missing close tag means the transfer was truncated.
func checkDocument(doc *types.RawDocument) error {
	body := bytes.TrimSpace(doc.Body)
	switch {
	case len(body) == 0:
		return malformed(doc, "empty body")
	case contenttype.IsBinary(doc.ContentType, body):
		return malformed(doc, "binary payload")
	case !contenttype.IsMarkup(doc.ContentType, body):
		return malformed(doc, "not a markup document")
	case !bytes.Contains(bytes.ToLower(tail(body, 4096)), closingHTML):
		return malformed(doc, "truncated document")
	}
	return nil
}

func tail(b []byte, n int) []byte {
	if len(b) > n {
		return b[len(b)-n:]
	}
	return b
}
