package browser

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpace   = regexp.MustCompile(`[ \t]+`)
)

// PageText reduces an HTML document to readable text. Links are kept as
// "text (href)" so listing URLs survive. The result is cut to maxChars runes
// when maxChars is positive.
func PageText(document string, maxChars int) (string, error) {
	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	collectText(doc, &sb, 0)

	text := cleanText(sb.String())
	if maxChars > 0 {
		if r := []rune(text); len(r) > maxChars {
			text = string(r[:maxChars])
		}
	}
	return text, nil
}

func collectText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 80 {
		return
	}

	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg", "head":
			return
		case "h1", "h2", "h3", "h4", "p", "div", "section", "article", "tr":
			sb.WriteString("\n")
		case "br":
			sb.WriteString("\n")
		case "li":
			sb.WriteString("\n- ")
		case "img":
			if alt := attr(n, "alt"); alt != "" {
				sb.WriteString("[Image: " + alt + "] ")
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb, depth+1)
	}

	if n.Type == html.ElementNode && n.Data == "a" {
		if href := attr(n, "href"); href != "" && !strings.HasPrefix(href, "#") && !strings.HasPrefix(href, "javascript:") {
			sb.WriteString("(" + href + ") ")
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func cleanText(s string) string {
	s = multiSpace.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
