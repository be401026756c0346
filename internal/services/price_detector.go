package services

import (
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const priceMetaProperty = "product:price:amount"

var (
	// pagePriceRegex matches "$12" or "$12.34"; a third decimal digit is ignored
	pagePriceRegex = regexp.MustCompile(`\$\d+(\.\d{2})?`)

	// leadingFloatRegex is the prefix a browser's parseFloat accepts
	leadingFloatRegex = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// PriceDetector produces a best-guess purchase price for a product page
type PriceDetector struct {
	logger *zap.Logger
}

// NewPriceDetector creates a new price detector
func NewPriceDetector(logger *zap.Logger) *PriceDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceDetector{logger: logger.Named("detector")}
}

// DetectPriceFromHTML parses r as HTML and runs DetectPrice on it
func (d *PriceDetector) DetectPriceFromHTML(r io.Reader) (float64, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return 0, err
	}
	return d.DetectPrice(doc), nil
}

// DetectPrice returns, in priority order: the first product:price:amount meta
// tag (parsed as-is, possibly NaN), the first dollar amount in the body text,
// or 0.
func (d *PriceDetector) DetectPrice(doc *html.Node) float64 {
	if content, ok := findPriceMeta(doc); ok {
		price := parseLeadingFloat(content)
		d.logger.Debug("Detected price from meta tag", zap.Float64("price", price))
		return price
	}

	if body := findElement(doc, atom.Body); body != nil {
		text := renderedText(body)
		if match := pagePriceRegex.FindString(text); match != "" {
			price, err := strconv.ParseFloat(strings.TrimPrefix(match, "$"), 64)
			if err == nil {
				d.logger.Debug("Detected price from page content", zap.Float64("price", price))
				return price
			}
		}
	}

	d.logger.Debug("No price detected on the page")
	return 0
}

func findPriceMeta(n *html.Node) (string, bool) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Meta {
		if attr(n, "property") == priceMetaProperty {
			return attr(n, "content"), true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if content, ok := findPriceMeta(c); ok {
			return content, true
		}
	}
	return "", false
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// parseLeadingFloat mirrors parseFloat: leading whitespace is skipped, the
// longest numeric prefix is used, and no prefix at all yields NaN.
func parseLeadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "Infinity"), strings.HasPrefix(s, "+Infinity"):
		return math.Inf(1)
	case strings.HasPrefix(s, "-Infinity"):
		return math.Inf(-1)
	}
	prefix := leadingFloatRegex.FindString(s)
	if prefix == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// hiddenText elements never contribute to rendered text
var hiddenText = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Head:     true,
}

// blockElements break rendered text onto a new line
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true, atom.Li: true,
	atom.Main: true, atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Table: true, atom.Td: true, atom.Th: true, atom.Tr: true,
	atom.Ul: true,
}

// renderedText approximates innerText: visible text in document order with
// block boundaries as newlines.
func renderedText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if hiddenText[n.DataAtom] {
				return
			}
			if blockElements[n.DataAtom] {
				sb.WriteByte('\n')
				defer sb.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
