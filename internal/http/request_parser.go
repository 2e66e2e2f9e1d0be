// Package http provides the JSON HTTP API.
//
// This file implements utilities for parsing and validating request data:
// query filters, path IDs and JSON bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dompet/internal/core"
	"dompet/internal/navigation"
	"dompet/internal/period"
	"dompet/internal/report"
)

const maxBodyBytes = 1 << 20

// rangeMode tells parseRange what to do when the query names no period.
type rangeMode int

const (
	rangeOptional rangeMode = iota // no range filter
	rangeDefault                   // current period at the default granularity
)

// parseRange reads either start+end (a custom range) or granularity+date
// (the calendar period containing date). Missing granularity uses
// fallback and a missing date means today.
func parseRange(q url.Values, mode rangeMode, fallback period.Granularity, now time.Time) (*period.Range, error) {
	start := strings.TrimSpace(q.Get("start"))
	end := strings.TrimSpace(q.Get("end"))
	if start != "" || end != "" {
		if start == "" || end == "" {
			return nil, fmt.Errorf("%w: start and end must be given together", errBadRequest)
		}
		s, err := core.ParseDate(start)
		if err != nil {
			return nil, fmt.Errorf("%w: start: %v", errBadRequest, err)
		}
		e, err := core.ParseDate(end)
		if err != nil {
			return nil, fmt.Errorf("%w: end: %v", errBadRequest, err)
		}
		r := period.Custom(s, e)
		return &r, nil
	}

	gran := strings.TrimSpace(q.Get("granularity"))
	date := strings.TrimSpace(q.Get("date"))
	if gran == "" && date == "" && mode == rangeOptional {
		return nil, nil
	}

	g := fallback
	if gran != "" {
		parsed, err := period.ParseGranularity(gran)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		g = parsed
	}
	ref := now
	if date != "" {
		parsed, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("%w: date: %v", errBadRequest, err)
		}
		ref = parsed
	}
	r := period.For(g, ref)
	return &r, nil
}

// parseFilters reads the kind and category_id query filters.
func parseFilters(q url.Values) (report.Criteria, error) {
	var c report.Criteria
	if v := strings.TrimSpace(q.Get("kind")); v != "" {
		k, err := core.ParseKind(v)
		if err != nil {
			return c, fmt.Errorf("%w: kind %q", errBadRequest, v)
		}
		c.Kind = &k
	}
	if v := strings.TrimSpace(q.Get("category_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return c, fmt.Errorf("%w: category_id %q", errBadRequest, v)
		}
		c.CategoryID = &id
	}
	return c, nil
}

// parseCriteria combines the filters with a date range.
func parseCriteria(q url.Values, mode rangeMode, fallback period.Granularity, now time.Time) (report.Criteria, error) {
	c, err := parseFilters(q)
	if err != nil {
		return c, err
	}
	c.Range, err = parseRange(q, mode, fallback, now)
	return c, err
}

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month time.Month
}

// parseMonthParams extracts year and month, using now as the default.
// Unlike a form fallback, malformed values are rejected.
func parseMonthParams(q url.Values, now time.Time) (MonthParams, error) {
	p := MonthParams{Year: now.Year(), Month: now.Month()}
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return p, fmt.Errorf("%w: year %q", errBadRequest, v)
		}
		p.Year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return p, fmt.Errorf("%w: month %q", errBadRequest, v)
		}
		p.Month = time.Month(m)
	}
	return p, nil
}

func parseLimit(q url.Values) (int, error) {
	v := strings.TrimSpace(q.Get("limit"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 50 {
		return 0, fmt.Errorf("%w: limit %q", errBadRequest, v)
	}
	return n, nil
}

// parseID reads the {id} path value.
func parseID(r *http.Request) (int64, error) {
	v := r.PathValue("id")
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", errBadRequest, v)
	}
	return id, nil
}

// decodeJSON reads a single JSON object into dst. Unknown fields and
// trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// transactionRequest is the body of POST and PUT /api/transactions.
// Amount is a decimal string in major units; AmountCents wins when set.
// Both are magnitudes: the sign comes from Kind.
type transactionRequest struct {
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	AmountCents *int64 `json:"amount_cents"`
	CategoryID  int64  `json:"category_id"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	var cents int64
	if req.AmountCents != nil {
		cents = *req.AmountCents
		if cents <= 0 || cents > core.MaxAmountCents {
			return core.Transaction{}, fmt.Errorf("%w: amount_cents %d", core.ErrInvalidAmount, cents)
		}
	} else {
		cents, err = core.ParseDecimalToCents(req.Amount)
		if err != nil {
			return core.Transaction{}, err
		}
	}
	return core.Transaction{
		Kind:        kind,
		Amount:      core.Money{Cents: cents},
		CategoryID:  req.CategoryID,
		Description: sanitizeInput(req.Description),
		Date:        strings.TrimSpace(req.Date),
	}, nil
}

type categoryRequest struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func (req categoryRequest) toCategory() (core.Category, error) {
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		return core.Category{}, err
	}
	return core.Category{
		Name:  sanitizeInput(req.Name),
		Kind:  kind,
		Icon:  sanitizeInput(req.Icon),
		Color: sanitizeInput(req.Color),
	}, nil
}

type settingRequest struct {
	Value string `json:"value"`
}

// navigationRequest carries the client's current state, or none to start
// fresh, and the transition to apply.
type navigationRequest struct {
	State  *navigation.State `json:"state"`
	Action navigation.Action `json:"action"`
}
