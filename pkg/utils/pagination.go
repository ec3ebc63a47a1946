package utils

import (
	"net/url"
	"strconv"

	"property-billing/pkg/types"
)

const MaxPerPage = 100

// ParsePage читает page и per_page; per_page ограничен MaxPerPage.
func ParsePage(values url.Values, defaultPerPage int) types.Page {
	page := types.Page{Number: 1, PerPage: defaultPerPage}

	if p, err := strconv.Atoi(values.Get("page")); err == nil && p > 0 {
		page.Number = p
	}
	if pp, err := strconv.Atoi(values.Get("per_page")); err == nil && pp > 0 {
		page.PerPage = pp
	}
	if page.PerPage > MaxPerPage {
		page.PerPage = MaxPerPage
	}
	return page
}
