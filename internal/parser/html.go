package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLParser handles HTML files as a single page. Headings and
// block elements become paragraphs, and <title> becomes the title.
type HTMLParser struct{}

var (
	skippedElements = map[string]bool{"script": true, "style": true, "nav": true, "footer": true, "header": true}
	blockElements   = map[string]bool{"p": true, "li": true, "td": true, "th": true, "blockquote": true, "pre": true}
)

func (p *HTMLParser) Extract(r io.Reader, filename string) (*Extracted, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case skippedElements[n.Data]:
				return
			case isHeading(n.Data) || blockElements[n.Data]:
				if t := textContent(n); t != "" {
					blocks = append(blocks, t)
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	root := doc
	if body := findElement(doc, "body"); body != nil {
		root = body
	}
	walk(root)

	var title string
	if t := findElement(doc, "title"); t != nil {
		title = textContent(t)
	}

	return &Extracted{
		Title: title,
		Pages: []string{strings.Join(blocks, "\n\n")},
	}, nil
}

func isHeading(tag string) bool {
	return len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6'
}

// textContent joins the descendant text of n with HTML whitespace collapsed.
func textContent(n *html.Node) string {
	var words []string
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			words = append(words, strings.Fields(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(words, " ")
}

// findElement returns the first element named tag in document order.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
