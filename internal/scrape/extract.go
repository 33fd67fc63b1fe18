package scrape

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/pveldt/skim/internal/api"
)

// element subtrees that never contain readable article text
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"footer":   true,
	"aside":    true,
	"header":   true,
	"noscript": true,
	"iframe":   true,
}

// class name fragments that mark ads, navigation and other chrome
var skipClassPatterns = []string{
	"advertisement",
	"sidebar",
	"menu",
	"navigation",
	"cookie",
	"popup",
	"modal",
	"banner",
}

// tags whose text is collected as paragraph units
var paragraphElements = map[string]bool{
	"p":  true,
	"h1": true,
	"h2": true,
	"h3": true,
	"h4": true,
	"li": true,
}

// short fragments (button labels, timestamps) are noise
const minParagraphLength = 20

// ExtractContent walks the parsed page and returns its readable text:
// paragraph and heading units joined by blank lines. Navigation,
// script, ad and boilerplate subtrees are dropped. Extraction prefers
// an article or main landmark over the whole body.
func ExtractContent(root *html.Node) string {
	scope := findMainContent(root)
	if scope == nil {
		return ""
	}

	var paragraphs []string
	collectParagraphs(scope, &paragraphs)
	return strings.Join(paragraphs, "\n\n")
}

func findMainContent(root *html.Node) *html.Node {
	if n := findElement(root, func(n *html.Node) bool { return n.Data == "article" }); n != nil {
		return n
	}
	if n := findElement(root, func(n *html.Node) bool { return n.Data == "main" }); n != nil {
		return n
	}
	if n := findElement(root, func(n *html.Node) bool { return attrValue(n, "role") == "main" }); n != nil {
		return n
	}
	return findElement(root, func(n *html.Node) bool { return n.Data == "body" })
}

func collectParagraphs(n *html.Node, out *[]string) {
	if skippable(n) {
		return
	}

	if n.Type == html.ElementNode && paragraphElements[n.Data] {
		text := nodeText(n)
		if len(text) > minParagraphLength {
			*out = append(*out, text)
		}
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectParagraphs(c, out)
	}
}

// nodeText returns the whitespace-normalized text of n's subtree,
// still excluding skippable descendants.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if skippable(n) {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func skippable(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if skipElements[n.Data] {
		return true
	}

	class := strings.ToLower(attrValue(n, "class"))
	if class == "" {
		return false
	}
	for _, pattern := range skipClassPatterns {
		if strings.Contains(class, pattern) {
			return true
		}
	}
	return false
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// ExtractMeta reads the page title and the common meta tags. Fields
// without a matching tag are left empty.
func ExtractMeta(root *html.Node) api.DocumentMeta {
	meta := api.DocumentMeta{}

	if t := findElement(root, func(n *html.Node) bool { return n.Data == "title" }); t != nil {
		meta.Title = nodeText(t)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			content := attrValue(n, "content")
			if content != "" {
				switch attrValue(n, "name") {
				case "description":
					meta.Description = content
				case "author":
					meta.Author = content
				case "keywords":
					meta.Keywords = content
				}
				switch attrValue(n, "property") {
				case "og:title":
					if meta.Title == "" {
						meta.Title = content
					}
				case "article:published_time":
					meta.PublishedAt = content
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return meta
}
