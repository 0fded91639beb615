package query

import "net/url"

// Link is one hypermedia link.
type Link struct {
	Href string `json:"href"`
}

// Links is the self/prev/next triple of a paginated response.
type Links struct {
	Self Link `json:"self"`
	Prev Link `json:"prev"`
	Next Link `json:"next"`
}

// Page is the envelope every paginated endpoint produces. Records keep
// their accumulation order; an empty result still carries well-formed
// links repeating the inbound cursor.
type Page struct {
	Links    Links `json:"_links"`
	Embedded struct {
		Records []any `json:"records"`
	} `json:"_embedded"`
}

func link(basePath string, p *Params, cursor string) Link {
	v := p.Values()
	if cursor != "" {
		v.Set("cursor", cursor)
	}
	u := url.URL{Path: basePath, RawQuery: v.Encode()}
	return Link{Href: u.String()}
}

// newPage wraps records in the pagination envelope. first and last are the
// paging tokens of the boundary rows; empty tokens fall back to the
// inbound cursor.
func newPage(basePath string, p *Params, records []any, first, last string) *Page {
	if first == "" {
		first = p.Cursor
	}
	if last == "" {
		last = p.Cursor
	}
	page := &Page{
		Links: Links{
			Self: link(basePath, p, p.Cursor),
			Prev: link(basePath, p, first),
			Next: link(basePath, p, last),
		},
	}
	page.Embedded.Records = records
	if page.Embedded.Records == nil {
		page.Embedded.Records = []any{}
	}
	return page
}
