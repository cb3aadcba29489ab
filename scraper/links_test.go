package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractArticleLinks(t *testing.T) {
	page := []byte(`<html><body>
		<a href="/article/10.1000/one">One</a>
		<a href="https://example.org/article/10.1000/two">Two</a>
		<a href="/article/10.1000/one">Duplicate</a>
		<a href="/about">About</a>
		<a>no href</a>
	</body></html>`)

	links, err := ExtractArticleLinks(page, "https://example.org/search?query=research&page=1")
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.org/article/10.1000/one",
		"https://example.org/article/10.1000/two",
	}, links)
}

func TestExtractArticleLinksEmptyPage(t *testing.T) {
	links, err := ExtractArticleLinks([]byte("<html><body></body></html>"), "https://example.org/search")
	assert.NoError(t, err)
	assert.Empty(t, links)
}

func TestParseArticle(t *testing.T) {
	page := []byte(`<html>
	<head>
		<title>Doc Title | Publisher</title>
		<meta name="description" content="Meta abstract."/>
	</head>
	<body>
		<h1>Quantum Leap</h1>
		<div class="c-article-abstract">Abstract paragraph text.</div>
		<p>First body paragraph.</p>
		<p>Second body paragraph.</p>
	</body></html>`)

	article, err := ParseArticle(page, "https://example.org/article/1")
	assert.NoError(t, err)
	assert.Equal(t, "Quantum Leap", article.Title)
	assert.Equal(t, "Abstract paragraph text.", article.Abstract)
	assert.Contains(t, article.Content, "First body paragraph.")
	assert.Contains(t, article.Content, "Second body paragraph.")
	assert.Equal(t, "https://example.org/article/1", article.URL)
}

func TestParseArticleTitleFallback(t *testing.T) {
	page := []byte(`<html><head><title>Only Doc Title</title></head><body><p>Body.</p></body></html>`)
	article, err := ParseArticle(page, "u")
	assert.NoError(t, err)
	assert.Equal(t, "Only Doc Title", article.Title)
}

func TestPageURL(t *testing.T) {
	assert.Equal(t, "https://e.org/search?q=x&page=2", pageURL("https://e.org/search?q=x", 2))
	assert.Equal(t, "https://e.org/search?page=2", pageURL("https://e.org/search", 2))
}
