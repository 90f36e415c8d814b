package storage

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/DeprecatedLuar/sqldevcfg/internal/errors"
)

// XMLHeader is the declaration SQL Developer writes at the top of its files.
const XMLHeader = "<?xml version = '1.0' encoding = 'UTF-8'?>\n"

const indentUnit = "  "

// ============================================================================
// Reading
// ============================================================================

// LoadXML parses an XML file into an etree document.
// An empty file yields a document without a root element.
func LoadXML(path string) (*etree.Document, error) {
	doc := etree.NewDocument()
	data, err := ReadFileIfExists(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// ============================================================================
// Rendering
// ============================================================================

// RenderXML writes root and its descendants in the layout SQL Developer's own
// files use: two-space indentation, self-closing empty elements written as
// `<tag a="b" />`, and every non-ASCII character as a decimal character
// reference so the output is pure ASCII.
//
// Text of elements with children is kept only when it is not whitespace;
// comments and processing instructions inside the root are dropped.
func RenderXML(root *etree.Element) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(XMLHeader)
	if err := writeElement(&buf, root, 0); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func writeElement(buf *bytes.Buffer, e *etree.Element, level int) error {
	buf.WriteByte('<')
	buf.WriteString(e.FullTag())

	for _, attr := range e.Attr {
		value, err := escapeAttr(attr.Value)
		if err != nil {
			return fmt.Errorf("attribute %s of <%s>: %w", attr.FullKey(), e.FullTag(), err)
		}
		buf.WriteByte(' ')
		buf.WriteString(attr.FullKey())
		buf.WriteString(`="`)
		buf.WriteString(value)
		buf.WriteByte('"')
	}

	children := e.ChildElements()
	text, err := escapeText(e.Text())
	if err != nil {
		return fmt.Errorf("text of <%s>: %w", e.FullTag(), err)
	}

	if len(children) == 0 {
		if text == "" {
			buf.WriteString(" />")
			return nil
		}
		buf.WriteByte('>')
		buf.WriteString(text)
		writeClose(buf, e)
		return nil
	}

	buf.WriteByte('>')
	if strings.TrimSpace(text) != "" {
		buf.WriteString(text)
	}
	for _, child := range children {
		buf.WriteByte('\n')
		buf.WriteString(strings.Repeat(indentUnit, level+1))
		if err := writeElement(buf, child, level+1); err != nil {
			return err
		}
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(indentUnit, level))
	writeClose(buf, e)
	return nil
}

func writeClose(buf *bytes.Buffer, e *etree.Element) {
	buf.WriteString("</")
	buf.WriteString(e.FullTag())
	buf.WriteByte('>')
}

func escapeText(s string) (string, error) {
	return escape(s, false)
}

func escapeAttr(s string) (string, error) {
	return escape(s, true)
}

func escape(s string, attr bool) (string, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: invalid UTF-8 in %q", errors.ErrSerialization, s)
	}

	var sb strings.Builder
	for _, r := range s {
		if !isXMLChar(r) {
			return "", fmt.Errorf("%w: character %U is not allowed in XML", errors.ErrSerialization, r)
		}
		switch {
		case r == '&':
			sb.WriteString("&amp;")
		case r == '<':
			sb.WriteString("&lt;")
		case r == '>':
			sb.WriteString("&gt;")
		case attr && r == '"':
			sb.WriteString("&quot;")
		case attr && r == '\n':
			sb.WriteString("&#10;")
		case attr && r == '\r':
			sb.WriteString("&#13;")
		case attr && r == '\t':
			sb.WriteString("&#09;")
		case r > 0x7f:
			sb.WriteString("&#")
			sb.WriteString(strconv.Itoa(int(r)))
			sb.WriteByte(';')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String(), nil
}

// isXMLChar reports whether r is in the XML 1.0 Char production.
func isXMLChar(r rune) bool {
	switch {
	case r == 0x9, r == 0xA, r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
