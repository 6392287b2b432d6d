package products

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/server/models"
)

const (
	DefaultLimit = 10
	DefaultPage  = 1
	MaxLimit     = 100
)

// maxPage keeps (Page-1)*Limit and Page+1 inside int.
const maxPage = math.MaxInt / MaxLimit

// Sort orders listings by price.
type Sort int

const (
	SortNone Sort = 0
	SortAsc  Sort = 1
	SortDesc Sort = -1
)

// ListOptions selects one page of products. Zero values mean "default" for
// Limit and Page and "no filter" for the rest.
type ListOptions struct {
	Limit    int
	Page     int
	Sort     Sort
	Category string
	Status   *bool
	Title    string
}

func (o ListOptions) normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	o.Limit = min(o.Limit, MaxLimit)
	if o.Page <= 0 {
		o.Page = DefaultPage
	}
	o.Page = min(o.Page, maxPage)
	return o
}

func (o ListOptions) offset() int {
	return (o.Page - 1) * o.Limit
}

func (o ListOptions) matches(p models.Product) bool {
	if o.Category != "" && p.Category != o.Category {
		return false
	}
	if o.Status != nil && p.Status != *o.Status {
		return false
	}
	if o.Title != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(o.Title)) {
		return false
	}
	return true
}

// Page is one page of a listing together with its navigation data.
type Page struct {
	Docs        []models.Product `json:"docs"`
	TotalDocs   int              `json:"totalDocs"`
	Limit       int              `json:"limit"`
	Page        int              `json:"page"`
	TotalPages  int              `json:"totalPages"`
	HasPrevPage bool             `json:"hasPrevPage"`
	HasNextPage bool             `json:"hasNextPage"`
	PrevPage    *int             `json:"prevPage"`
	NextPage    *int             `json:"nextPage"`
}

// newPage fills in navigation for docs, the already sliced page content.
// An empty catalog still has one (empty) page.
func newPage(docs []models.Product, total int, opts ListOptions) *Page {
	if docs == nil {
		docs = []models.Product{}
	}

	pages := (total + opts.Limit - 1) / opts.Limit
	if pages == 0 {
		pages = 1
	}

	p := &Page{
		Docs:        docs,
		TotalDocs:   total,
		Limit:       opts.Limit,
		Page:        opts.Page,
		TotalPages:  pages,
		HasPrevPage: opts.Page > 1,
		HasNextPage: opts.Page < pages,
	}
	if p.HasPrevPage {
		prev := opts.Page - 1
		p.PrevPage = &prev
	}
	if p.HasNextPage {
		next := opts.Page + 1
		p.NextPage = &next
	}
	return p
}

// paginate filters, sorts and slices an in-memory catalog.
func paginate(all []models.Product, opts ListOptions) *Page {
	opts = opts.normalize()

	matched := make([]models.Product, 0, len(all))
	for _, p := range all {
		if opts.matches(p) {
			matched = append(matched, p)
		}
	}

	switch opts.Sort {
	case SortAsc:
		slices.SortStableFunc(matched, func(a, b models.Product) int { return cmp.Compare(a.Price, b.Price) })
	case SortDesc:
		slices.SortStableFunc(matched, func(a, b models.Product) int { return cmp.Compare(b.Price, a.Price) })
	}

	start := min(opts.offset(), len(matched))
	end := min(start+opts.Limit, len(matched))
	return newPage(matched[start:end], len(matched), opts)
}
