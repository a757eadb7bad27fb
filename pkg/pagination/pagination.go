package pagination

import (
	"strconv"
	"strings"
)

const (
	// DefaultPage is used when page is absent or malformed.
	DefaultPage = 1
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Parse reads raw page/limit query values. Non-numeric or non-positive values
// fall back to the defaults instead of failing the request.
func Parse(rawPage, rawLimit string) Params {
	return Params{
		Page:  positiveOr(rawPage, DefaultPage),
		Limit: positiveOr(rawLimit, DefaultLimit),
	}
}

// Normalize applies the defaults to zero or negative values.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	return p
}

// Offset is the number of rows skipped before the page starts.
func (p Params) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// TotalPages returns ceil(total/limit).
func TotalPages(total int64, limit int) int {
	if limit < 1 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func positiveOr(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
