package halo

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// StripHTML flattens an HTML fragment to plain text: tags dropped, script
// and style subtrees skipped, whitespace collapsed. Halo stores ticket
// detail bodies as HTML and the recommendation prompt wants prose.
func StripHTML(input string) string {
	node, err := html.Parse(strings.NewReader(input))
	if err != nil || node == nil {
		return strings.TrimSpace(input)
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return strings.Join(strings.Fields(b.String()), " ")
}

// SampleSummaries returns up to max plain-text one-liners describing the
// most recent tickets, preferring the summary field and falling back to a
// stripped detail body. Empty tickets are skipped.
func SampleSummaries(tickets []Ticket, max int) []string {
	if max <= 0 {
		return nil
	}
	out := make([]string, 0, max)
	for _, t := range tickets {
		if len(out) == max {
			break
		}
		s := strings.TrimSpace(t.Summary)
		if s == "" {
			s = StripHTML(t.DetailsHTML)
		}
		if s == "" {
			continue
		}
		const limit = 200
		if len(s) > limit {
			cut := limit
			for cut > 0 && !utf8.RuneStart(s[cut]) {
				cut--
			}
			s = s[:cut]
		}
		out = append(out, s)
	}
	return out
}
