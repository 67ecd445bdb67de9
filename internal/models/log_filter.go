package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 20
)

// LogFilter is what a caller asks for. It lives for one query only.
type LogFilter struct {
	Start     *time.Time
	End       *time.Time
	CreatedBy string
	Action    string
	Page      int
	PerPage   int
}

// LogPredicate is the store-level condition. Nil fields are unconstrained and
// the set fields are ANDed together.
type LogPredicate struct {
	CreatedFrom *time.Time // created_at >= CreatedFrom
	CreatedTo   *time.Time // created_at <= CreatedTo
	CreatedBy   *string
	Action      *string
}

// LogQuery is a compiled LogFilter. Ordering is always created_at DESC.
type LogQuery struct {
	Predicate LogPredicate
	Limit     int
	Offset    int
}

func CompileLogFilter(f LogFilter) LogQuery {
	var p LogPredicate

	switch {
	case f.Start != nil && f.End != nil:
		start, end := *f.Start, *f.End
		p.CreatedFrom, p.CreatedTo = &start, &end
	case f.Start != nil:
		start := *f.Start
		p.CreatedFrom = &start
	case f.End != nil:
		end := *f.End
		p.CreatedTo = &end
	}

	if f.CreatedBy != "" {
		createdBy := f.CreatedBy
		p.CreatedBy = &createdBy
	}
	if f.Action != "" {
		action := f.Action
		p.Action = &action
	}

	page, perPage := f.Page, f.PerPage
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	return LogQuery{
		Predicate: p,
		Limit:     perPage,
		Offset:    pageOffset(page, perPage),
	}
}

// pageOffset returns (page-1)*perPage, saturating at math.MaxInt instead of
// overflowing. Both arguments are >= 1.
func pageOffset(page, perPage int) int {
	if page-1 > math.MaxInt/perPage {
		return math.MaxInt
	}
	return (page - 1) * perPage
}

// Matches evaluates the predicate against a single record in memory.
func (p LogPredicate) Matches(r *LogRecord) bool {
	if p.CreatedFrom != nil && r.CreatedAt.Before(*p.CreatedFrom) {
		return false
	}
	if p.CreatedTo != nil && r.CreatedAt.After(*p.CreatedTo) {
		return false
	}
	if p.CreatedBy != nil && r.CreatedBy != *p.CreatedBy {
		return false
	}
	if p.Action != nil && r.Action != *p.Action {
		return false
	}
	return true
}

// IsEmpty reports whether the predicate matches every record.
func (p LogPredicate) IsEmpty() bool {
	return p.CreatedFrom == nil && p.CreatedTo == nil && p.CreatedBy == nil && p.Action == nil
}

// ParsePage parses a 1-based page number, falling back to DefaultPage when
// the input is empty, not an integer, or below 1.
func ParsePage(s string) int {
	return parsePositiveOrDefault(s, DefaultPage)
}

// ParsePerPage is ParsePage for the page size.
func ParsePerPage(s string) int {
	return parsePositiveOrDefault(s, DefaultPerPage)
}

func parsePositiveOrDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// "2.0" style numbers come from clients that serialize everything as float
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return def
		}
		n = int(f)
	}
	if n < 1 {
		return def
	}
	return n
}
