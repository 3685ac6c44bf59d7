// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// TotalPages returns ceil(total/pageSize). pageSize must be positive.
func TotalPages(total, pageSize int) int {
	if total <= 0 {
		return 0
	}
	n := total / pageSize
	if total%pageSize != 0 {
		n++
	}
	return n
}

// ClampPage bounds page into [1, totalPages], or 1 when there are no pages.
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// PageBounds returns the half-open slice bounds [start, end) of the given
// 1-indexed page over total items.
func PageBounds(page, pageSize, total int) (start, end int) {
	start = (page - 1) * pageSize
	if start > total {
		start = total
	}
	if start < 0 {
		start = 0
	}
	end = total
	if pageSize < total-start {
		end = start + pageSize
	}
	return start, end
}
