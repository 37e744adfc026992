package bridge

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractTitle scans head markup for the first title element and returns its
// trimmed text content. The second return value is false when the markup
// holds no title element or cannot be parsed.
func ExtractTitle(markup string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", false
	}

	node := findTitle(doc)
	if node == nil {
		return "", false
	}

	var sb strings.Builder
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}

	title := strings.TrimSpace(sb.String())
	if title == "" {
		return "", false
	}

	return title, true
}

func findTitle(node *html.Node) *html.Node {
	if node.Type == html.ElementNode && node.Data == "title" {
		return node
	}

	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if found := findTitle(c); found != nil {
			return found
		}
	}

	return nil
}
