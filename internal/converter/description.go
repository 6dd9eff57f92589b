package converter

import (
	"html"
	"strings"

	"github.com/ginjaninja78/bartscher-feed/internal/types"
)

// =============================================================================
// DESCRIPTIONS
// =============================================================================

// ShortDescription is the one-sentence summary used by both descriptions.
func ShortDescription(name, manufacturer string) string {
	return name + " – profesionální gastronomické zařízení značky " + manufacturer + "."
}

// BuildHTMLDescription renders the <popis_html> body.
//
// STRUCTURE (lines joined with "\n"):
//
//	<h2>{name}</h2>
//	<p><strong>{name}</strong> — {short}</p>
//	<p>{text}</p>                                (only with a description text)
//	<h3>Technické parametry</h3><ul>...</ul>   (only with attributes)
//	<h3>Dokumentace</h3><ul>...</ul>           (only with documents)
//	<p>Produkt lze zakoupit u {storefront}</p>
//
// All inserted text is HTML-escaped. attrs and docs must already be filtered.
func BuildHTMLDescription(name, short, text string, attrs []types.Attribute, docs []types.Document, storefront string) string {
	esc := html.EscapeString
	lines := []string{
		"<h2>" + esc(name) + "</h2>",
		"<p><strong>" + esc(name) + "</strong> — " + esc(short) + "</p>",
	}
	if text != "" {
		lines = append(lines, "<p>"+esc(text)+"</p>")
	}

	if len(attrs) > 0 {
		lines = append(lines, "<h3>Technické parametry</h3>", "<ul>")
		for _, a := range attrs {
			lines = append(lines, "<li><strong>"+esc(a.Name)+":</strong> "+esc(a.Value)+"</li>")
		}
		lines = append(lines, "</ul>")
	}

	if len(docs) > 0 {
		lines = append(lines, "<h3>Dokumentace</h3>", "<ul>")
		for _, d := range docs {
			lines = append(lines, `<li><a href="`+esc(d.URL)+`" target="_blank">`+esc(d.Label)+"</a></li>")
		}
		lines = append(lines, "</ul>")
	}

	lines = append(lines, "<p>Produkt lze zakoupit u "+esc(storefront)+"</p>")
	return strings.Join(lines, "\n")
}

// BuildTextDescription renders the plain-text <popis>: the short description,
// the description text if any, then one "name: value" line per attribute.
// Blocks are separated by a blank line.
func BuildTextDescription(short, text string, attrs []types.Attribute) string {
	lines := make([]string, 0, len(attrs))
	for _, a := range attrs {
		lines = append(lines, a.Name+": "+a.Value)
	}
	if text != "" {
		short += "\n\n" + text
	}
	return strings.TrimSpace(short + "\n\n" + strings.Join(lines, "\n"))
}

// =============================================================================
// FIELD FILTERS
// =============================================================================

// isURL reports whether a cell holds a link.
func isURL(s string) bool {
	return strings.HasPrefix(s, "http")
}

// filterImages keeps the URL cells, in column order.
func filterImages(cells []string) []string {
	images := make([]string, 0, len(cells))
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if isURL(c) {
			images = append(images, c)
		}
	}
	return images
}

// filterAttributes drops attributes with an empty value.
func filterAttributes(attrs []types.Attribute) []types.Attribute {
	out := make([]types.Attribute, 0, len(attrs))
	for _, a := range attrs {
		v := strings.TrimSpace(a.Value)
		if v == "" {
			continue
		}
		out = append(out, types.Attribute{Name: strings.TrimSpace(a.Name), Value: v})
	}
	return out
}

// filterDocuments keeps documentation cells that hold a link.
func filterDocuments(docs []types.Document) []types.Document {
	out := make([]types.Document, 0, len(docs))
	for _, d := range docs {
		u := strings.TrimSpace(d.URL)
		if isURL(u) {
			out = append(out, types.Document{Label: d.Label, URL: u})
		}
	}
	return out
}
