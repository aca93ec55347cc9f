// Package export renders merged documents into files.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/randalmurphal/docmerge/pkg/docmerge/document"
)

// Exporter writes a document in one output format.
type Exporter interface {
	Export(ctx context.Context, doc *document.Document, w io.Writer) (int64, error)

	// Format is the format name, also used as file extension.
	Format() string
}

// strippedElements are removed together with their content. Most are
// word-processor leftovers from templates saved as HTML.
var strippedElements = map[string]bool{
	"script":      true,
	"style":       true,
	"xml":         true,
	"meta":        true,
	"link":        true,
	"o:p":         true,
	"v:shape":     true,
	"v:imagedata": true,
	"v:shapetype": true,
}

const pageStyle = `@page { size: A4; margin: 20mm; }
body { font-family: Calibri, Arial, sans-serif; font-size: 11pt; line-height: 1.4; margin: 0; }
img { max-width: 100%; }
table { border-collapse: collapse; }`

// HTMLExporter writes a document as a standalone HTML5 page.
type HTMLExporter struct{}

// NewHTMLExporter creates an HTMLExporter.
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{}
}

// Format implements Exporter.
func (e *HTMLExporter) Format() string { return "html" }

// Export implements Exporter.
func (e *HTMLExporter) Export(ctx context.Context, doc *document.Document, w io.Writer) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	body, err := Normalize(doc.HTML)
	if err != nil {
		return 0, fmt.Errorf("normalize document %s: %w", doc.ID, err)
	}

	title := doc.TemplateName
	if doc.RecordName != "" {
		title += " - " + doc.RecordName
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title>\n<style>\n")
	b.WriteString(pageStyle)
	b.WriteString("\n</style>\n</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n</body>\n</html>\n")

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// entityForms maps html.Render's numeric escapes back to the forms the
// placeholder engine writes, so an export carries &#039; and &quot;.
var entityForms = strings.NewReplacer("&#39;", "&#039;", "&#34;", "&quot;")

// Normalize cleans merged HTML for export. For a full document only the
// body content is kept. Scripts, styles, comments and word-processor
// markup are removed, and Mso* classes are dropped.
//
// Text is re-serialized, so any entity reference comes out in one canonical
// form: &amp; &lt; &gt; &#039; &quot; for the escaped characters and the
// literal character for everything else (&euro; becomes €).
func Normalize(src string) (string, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", err
	}
	body := findElement(root, "body")
	if body == nil {
		return "", nil
	}
	clean(body)

	var buf bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return entityForms.Replace(strings.TrimSpace(buf.String())), nil
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func clean(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.CommentNode:
			n.RemoveChild(c)
		case c.Type == html.ElementNode && strippedElements[c.Data]:
			n.RemoveChild(c)
		default:
			if c.Type == html.ElementNode {
				dropMsoClasses(c)
			}
			clean(c)
		}
		c = next
	}
}

func dropMsoClasses(n *html.Node) {
	for i, a := range n.Attr {
		if a.Namespace != "" || a.Key != "class" {
			continue
		}
		var keep []string
		for _, cls := range strings.Fields(a.Val) {
			if !strings.HasPrefix(strings.ToLower(cls), "mso") {
				keep = append(keep, cls)
			}
		}
		if len(keep) == 0 {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
		} else {
			n.Attr[i].Val = strings.Join(keep, " ")
		}
		return
	}
}
