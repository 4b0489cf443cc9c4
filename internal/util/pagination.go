package util

import (
	"math"
	"strconv"
)

const (
	DefaultPageSize = 30
	MaxPageSize     = 100
)

// Calculate clamps page so the offset never overflows; pages past the end are empty.
func Calculate(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	if maxPage := math.MaxInt / size; page > maxPage {
		page = maxPage
	}
	offset = (page - 1) * size
	return offset, size
}

// ParsePage reads page and size query values; anything unparsable falls back to defaults.
func ParsePage(page, size string) (offset, limit int) {
	p, _ := strconv.Atoi(page)
	s, _ := strconv.Atoi(size)
	return Calculate(p, s)
}
