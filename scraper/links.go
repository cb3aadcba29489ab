package scraper

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ExtractArticleLinks returns absolute article URLs found in a listing page,
// in document order, without duplicates.
func ExtractArticleLinks(page []byte, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	var links []string
	seen := map[string]bool{}
	walk(root, func(node *html.Node) {
		if node.Type != html.ElementNode || node.Data != "a" {
			return
		}
		href := attr(node, "href")
		if href == "" || !strings.Contains(href, "/article/") {
			return
		}
		parsed, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(parsed)
		resolved.Fragment = ""
		link := resolved.String()
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})
	return links, nil
}

func walk(node *html.Node, visit func(*html.Node)) {
	visit(node)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walk(child, visit)
	}
}

func attr(node *html.Node, name string) string {
	for _, candidate := range node.Attr {
		if candidate.Key == name {
			return candidate.Val
		}
	}
	return ""
}
