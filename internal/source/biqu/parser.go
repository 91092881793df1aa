package biqu

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/veranemoloko/novel-downloader/internal/domain"
	errpkg "github.com/veranemoloko/novel-downloader/internal/errors"
)

// HiddenChaptersSentinel is the href the site puts on its "show more" anchor.
// The chapters it hides are rendered in the same page under span.dd_hide and
// belong at the sentinel's position in the reading order.
const HiddenChaptersSentinel = "javascript:dd_show()"

const (
	chapterListSelector   = "div.listmain dl dd a"
	hiddenChapterSelector = "span.dd_hide dd a"
	contentSelector       = "#chaptercontent"
	titleSelector         = "h1"

	// paragraphIndent separates paragraphs inside the content container.
	paragraphIndent = "　　"
)

// Parser extracts chapter lists and chapter bodies from site pages.
type Parser struct {
	base *url.URL
}

// NewParser creates a Parser that resolves relative links against baseURL.
func NewParser(baseURL string) (*Parser, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &Parser{base: base}, nil
}

func load(raw []byte) (*goquery.Document, error) {
	r, err := charset.NewReader(bytes.NewReader(raw), "text/html")
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(r)
}

// Extract returns the chapter title and body text of a chapter page.
// Paragraphs are joined with newlines; the leading fragment and the two
// trailing fragments of the container are site chrome and are dropped.
func (p *Parser) Extract(raw []byte) (string, string, error) {
	doc, err := load(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: parse page: %v", errpkg.ErrExtraction, err)
	}

	content := doc.Find(contentSelector).First()
	if content.Length() == 0 {
		return "", "", fmt.Errorf("%w: chapter content not found", errpkg.ErrExtraction)
	}

	title := strings.TrimSpace(doc.Find(titleSelector).First().Text())

	parts := strings.Split(content.Text(), paragraphIndent)
	if len(parts) > 3 {
		parts = parts[1 : len(parts)-2]
	} else {
		parts = nil
	}

	return title, strings.Join(parts, "\n"), nil
}

// ListUnits returns the chapters of an index page in reading order. Index is
// the position in the returned slice.
func (p *Parser) ListUnits(raw []byte) ([]domain.Unit, error) {
	doc, err := load(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parse page: %v", errpkg.ErrEnumeration, err)
	}

	anchors := doc.Find(chapterListSelector)
	if anchors.Length() == 0 {
		return nil, fmt.Errorf("%w: chapter list not found", errpkg.ErrEnumeration)
	}

	hasSentinel := false
	anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if href, _ := a.Attr("href"); strings.TrimSpace(href) == HiddenChaptersSentinel {
			hasSentinel = true
			return false
		}
		return true
	})

	var units []domain.Unit
	add := func(a *goquery.Selection) {
		href, ok := a.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		units = append(units, domain.Unit{
			Index:   len(units),
			Locator: resolve(p.base, href),
			Title:   strings.TrimSpace(a.Text()),
			State:   domain.UnitStatePending,
		})
	}

	anchors.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		switch {
		case strings.TrimSpace(href) == HiddenChaptersSentinel:
			doc.Find(hiddenChapterSelector).Each(func(_ int, h *goquery.Selection) {
				add(h)
			})
		case hasSentinel && a.ParentsFiltered("span.dd_hide").Length() > 0:
			// Emitted at the sentinel's position instead.
		default:
			add(a)
		}
	})

	if len(units) == 0 {
		return nil, fmt.Errorf("%w: chapter list is empty", errpkg.ErrEnumeration)
	}
	return units, nil
}
