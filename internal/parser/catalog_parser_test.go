package parser

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"danawa/crawler/internal/config"
	"danawa/crawler/internal/domain"
)

type listing struct {
	name, price, link string
	noPrice, noLink   bool
}

func buildListingPage(total string, next bool, items ...listing) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="danawa_content"><div class="product_list_wrap"><div class="product_list_area">`)
	if total != "" {
		fmt.Fprintf(&b, `<div class="prod_list_tab"><ul><li class="tab_item selected"><a><strong class="list_num">%s</strong></a></li></ul></div>`, total)
	}
	b.WriteString(`<div class="main_prodlist"><ul class="product_list">`)
	for _, it := range items {
		b.WriteString(`<li class="prod_item"><div class="prod_main_info">`)
		if it.noLink {
			fmt.Fprintf(&b, `<p class="prod_name"><a>%s</a></p>`, it.name)
		} else {
			fmt.Fprintf(&b, `<p class="prod_name"><a href="%s">%s</a></p>`, it.link, it.name)
		}
		if !it.noPrice {
			fmt.Fprintf(&b, `<p class="price_sect"><a><strong>%s</strong></a></p>`, it.price)
		}
		b.WriteString(`</div></li>`)
	}
	b.WriteString(`</ul></div>`)
	if next {
		b.WriteString(`<div class="prod_num_nav"><a class="edge_nav nav_next">다음</a></div>`)
	}
	b.WriteString(`</div></div></div></body></html>`)
	return b.String()
}

func TestParseListingPageExtractsRecords(t *testing.T) {
	html := buildListingPage("1,234", true,
		listing{name: " Monitor A ", price: "1,200", link: " http://x/a "},
		listing{name: "Monitor B", price: "가격비교예정", link: "http://x/b"},
	)

	p := NewCatalogParser(config.Default().Catalog)
	page, err := p.ParseListingPage(html)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !page.TotalKnown || page.TotalItems != 1234 {
		t.Fatalf("total = %d/%t, want 1234/true", page.TotalItems, page.TotalKnown)
	}
	if !page.HasNext {
		t.Fatalf("expected next link")
	}

	got := slices.Collect(page.Records())
	want := []domain.RawRecord{
		{Name: " Monitor A ", Price: "1,200", Link: " http://x/a "},
		{Name: "Monitor B", Price: "가격비교예정", Link: "http://x/b"},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("records = %+v, want %+v", got, want)
	}
}

func TestParseListingPageSkipsIncompleteNodes(t *testing.T) {
	html := buildListingPage("3", false,
		listing{name: "no price", link: "http://x/1", noPrice: true},
		listing{name: "no link", price: "100", noLink: true},
		listing{name: "complete", price: "100", link: "http://x/3"},
	)

	page, err := NewCatalogParser(config.Default().Catalog).ParseListingPage(html)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := slices.Collect(page.Records())
	if len(got) != 1 || got[0].Name != "complete" {
		t.Fatalf("records = %+v, want only the complete node", got)
	}
	if page.HasNext {
		t.Fatalf("did not expect next link")
	}
}

func TestParseListingPageUnknownTotal(t *testing.T) {
	tests := []struct {
		name  string
		total string
	}{
		{name: "missing element", total: ""},
		{name: "not a number", total: "많음"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := buildListingPage(tt.total, false, listing{name: "a", price: "1", link: "http://x/a"})
			page, err := NewCatalogParser(config.Default().Catalog).ParseListingPage(html)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if page.TotalKnown {
				t.Fatalf("total should be unknown, got %d", page.TotalItems)
			}
		})
	}
}

func TestRecordsStopsWhenConsumerStops(t *testing.T) {
	html := buildListingPage("", false,
		listing{name: "a", price: "1", link: "http://x/a"},
		listing{name: "b", price: "1", link: "http://x/b"},
		listing{name: "c", price: "1", link: "http://x/c"},
	)
	page, err := NewCatalogParser(config.Default().Catalog).ParseListingPage(html)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	seen := 0
	for range page.Records() {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Fatalf("seen = %d, want 2", seen)
	}
}
