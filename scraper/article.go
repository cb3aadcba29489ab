package scraper

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Article is a parsed article page.
type Article struct {
	URL      string
	Title    string
	Abstract string
	Content  string
}

// ParseArticle extracts the title, abstract and body text from an article
// page. Pages vary, so the extraction is best-effort: the first h1 (falling
// back to the document title), a node classed "abstract" or the description
// meta tag, and all paragraph text.
func ParseArticle(page []byte, URL string) (*Article, error) {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	ret := &Article{URL: URL}
	var docTitle string
	var paragraphs []string

	walk(root, func(node *html.Node) {
		if node.Type != html.ElementNode {
			return
		}
		switch node.Data {
		case "h1":
			if ret.Title == "" {
				ret.Title = text(node)
			}
		case "title":
			if docTitle == "" {
				docTitle = text(node)
			}
		case "meta":
			if attr(node, "name") == "description" && ret.Abstract == "" {
				ret.Abstract = strings.TrimSpace(attr(node, "content"))
			}
		case "p":
			if value := text(node); value != "" {
				paragraphs = append(paragraphs, value)
			}
		default:
			if strings.Contains(attr(node, "class"), "abstract") {
				if value := text(node); value != "" {
					ret.Abstract = value
				}
			}
		}
	})

	if ret.Title == "" {
		ret.Title = docTitle
	}
	ret.Content = strings.Join(paragraphs, "\n")
	return ret, nil
}

func text(node *html.Node) string {
	var b strings.Builder
	walk(node, func(child *html.Node) {
		if child.Type == html.TextNode {
			b.WriteString(child.Data)
		}
	})
	return strings.TrimSpace(strings.Join(strings.Fields(b.String()), " "))
}
