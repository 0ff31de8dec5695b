package parser

import (
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"strings"

	"danawa/crawler/internal/config"
	"danawa/crawler/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

var nonDigitRegex = regexp.MustCompile(`[^\d]`)

// ListingPage is one rendered catalog page after parsing.
type ListingPage struct {
	// TotalItems is the count reported by the page; valid only when TotalKnown.
	TotalItems int
	TotalKnown bool
	HasNext    bool

	doc       *goquery.Document
	selectors config.CatalogConfig
}

// CatalogParser turns rendered listing markup into raw records.
type CatalogParser struct {
	selectors config.CatalogConfig
}

func NewCatalogParser(cfg config.CatalogConfig) *CatalogParser {
	return &CatalogParser{
		selectors: cfg,
	}
}

func (p *CatalogParser) ParseListingPage(html string) (*ListingPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &ListingPage{
		doc:       doc,
		selectors: p.selectors,
	}

	page.TotalItems, page.TotalKnown = p.extractTotal(doc)
	if p.selectors.NextPageSelector != "" {
		page.HasNext = doc.Find(p.selectors.NextPageSelector).Length() > 0
	}

	log.Debugf("Parsed listing page: total=%d known=%t next=%t", page.TotalItems, page.TotalKnown, page.HasNext)
	return page, nil
}

// extractTotal reads the reported item count, e.g. "1,234" -> 1234.
func (p *CatalogParser) extractTotal(doc *goquery.Document) (int, bool) {
	if p.selectors.TotalSelector == "" {
		return 0, false
	}
	sel := doc.Find(p.selectors.TotalSelector).First()
	if sel.Length() == 0 {
		return 0, false
	}
	digits := nonDigitRegex.ReplaceAllString(strings.TrimSpace(sel.Text()), "")
	total, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return total, true
}

// Records yields one raw triple per listing node. Nodes missing the name,
// price or link element are skipped. The sequence reads the snapshot the page
// was parsed from; parse a fresh snapshot to see newer markup.
func (lp *ListingPage) Records() iter.Seq[domain.RawRecord] {
	return func(yield func(domain.RawRecord) bool) {
		nodes := lp.doc.Find(lp.selectors.ListingSelector)
		for i := range nodes.Length() {
			raw, ok := extractRecord(nodes.Eq(i), lp.selectors)
			if !ok {
				continue
			}
			if !yield(raw) {
				return
			}
		}
	}
}

func extractRecord(node *goquery.Selection, selectors config.CatalogConfig) (domain.RawRecord, bool) {
	nameSel := node.Find(selectors.NameSelector).First()
	if nameSel.Length() == 0 {
		return domain.RawRecord{}, false
	}
	link, exists := nameSel.Attr("href")
	if !exists {
		return domain.RawRecord{}, false
	}
	priceSel := node.Find(selectors.PriceSelector).First()
	if priceSel.Length() == 0 {
		return domain.RawRecord{}, false
	}

	return domain.RawRecord{
		Name:  nameSel.Text(),
		Price: priceSel.Text(),
		Link:  link,
	}, true
}
