package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"dompet/internal/core"
	"dompet/internal/log"
	"dompet/internal/navigation"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := parseCriteria(r.URL.Query(), rangeOptional, s.defaultGranularity(ctx), s.now())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	view, err := s.reports.Transactions(ctx, c)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionsViewJSON(view))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	t, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionJSON(t))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	t, err := req.toTransaction()
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	created, err := s.ledger.CreateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", fmt.Sprintf("/api/transactions/%d", created.ID)).
		Body(newTransactionJSON(created)).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	t, err := req.toTransaction()
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	t.ID = id
	updated, err := s.ledger.UpdateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionJSON(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var kind *core.Kind
	if v := strings.TrimSpace(r.URL.Query().Get("kind")); v != "" {
		k, err := core.ParseKind(v)
		if err != nil {
			writeError(w, r, log.OpList, fmt.Errorf("%w: kind %q", errBadRequest, v))
			return
		}
		kind = &k
	}
	cats, err := s.ledger.ListCategories(r.Context(), kind)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	out := make([]categoryJSON, len(cats))
	for i, c := range cats {
		out[i] = newCategoryJSON(c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	c, err := req.toCategory()
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	created, err := s.ledger.CreateCategory(r.Context(), c)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCategoryJSON(created))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	c, err := req.toCategory()
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	c.ID = id
	updated, err := s.ledger.UpdateCategory(r.Context(), c)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, newCategoryJSON(updated))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := parseCriteria(r.URL.Query(), rangeDefault, s.defaultGranularity(ctx), s.now())
	if err != nil {
		writeError(w, r, log.OpReport, err)
		return
	}
	view, err := s.reports.Summary(ctx, c)
	if err != nil {
		writeError(w, r, log.OpReport, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryViewJSON(view))
}

// handleBuckets serves the list/chart views. Daily and weekly buckets need
// year and month, monthly needs year, yearly takes neither.
func (s *Server) handleBuckets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	c, err := parseFilters(q)
	if err != nil {
		writeError(w, r, log.OpReport, err)
		return
	}
	ym, err := parseMonthParams(q, s.now())
	if err != nil {
		writeError(w, r, log.OpReport, err)
		return
	}

	view := strings.ToLower(strings.TrimSpace(q.Get("view")))
	var out bucketsViewJSON
	switch view {
	case "daily", "day":
		v, err := s.reports.Daily(ctx, ym.Year, ym.Month, c)
		if err != nil {
			writeError(w, r, log.OpReport, err)
			return
		}
		out = newBucketsViewJSON("daily", v, dayBucketJSON)
	case "weekly", "week":
		v, err := s.reports.Weekly(ctx, ym.Year, ym.Month, c)
		if err != nil {
			writeError(w, r, log.OpReport, err)
			return
		}
		out = newBucketsViewJSON("weekly", v, weekBucketJSON)
	case "", "monthly", "month":
		v, err := s.reports.Monthly(ctx, ym.Year, c)
		if err != nil {
			writeError(w, r, log.OpReport, err)
			return
		}
		out = newBucketsViewJSON("monthly", v, monthBucketJSON)
	case "yearly", "year":
		v, err := s.reports.Yearly(ctx, c)
		if err != nil {
			writeError(w, r, log.OpReport, err)
			return
		}
		out = newBucketsViewJSON("yearly", v, yearBucketJSON)
	default:
		writeError(w, r, log.OpReport, fmt.Errorf("%w: view %q", errBadRequest, view))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTopCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("kind")) == "" {
		q.Set("kind", core.Expense.String())
	}
	c, err := parseCriteria(q, rangeDefault, s.defaultGranularity(ctx), s.now())
	if err != nil {
		writeError(w, r, log.OpReport, err)
		return
	}
	limit, err := parseLimit(q)
	if err != nil {
		writeError(w, r, log.OpReport, err)
		return
	}
	entries, err := s.reports.TopCategories(ctx, *c.Kind, c, limit)
	if err != nil {
		writeError(w, r, log.OpReport, err)
		return
	}
	writeJSON(w, http.StatusOK, newCategoryBreakdownJSON(entries))
}

// handleNavigation applies one transition to the client's state and
// returns the new state with its summary. A missing state starts at today
// with the stored default granularity.
func (s *Server) handleNavigation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req navigationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpNavigate, err)
		return
	}
	now := s.now()
	fallback := s.defaultGranularity(ctx)
	st := navigation.NewState(fallback, now)
	if req.State != nil {
		st = *req.State
		st.Normalize(fallback, now)
	}
	if err := st.Apply(req.Action, now, core.ParseDate); err != nil {
		writeError(w, r, log.OpNavigate, err)
		return
	}
	view, err := s.reports.NavigationSummary(ctx, st)
	if err != nil {
		writeError(w, r, log.OpNavigate, err)
		return
	}
	log.FromContext(ctx).DebugContext(ctx, "Navigation applied",
		log.FieldGranularity, st.Granularity.String(),
		log.FieldRangeStart, st.RangeStart.Format(time.DateOnly),
		log.FieldRangeEnd, st.RangeEnd.Format(time.DateOnly))
	writeJSON(w, http.StatusOK, navigationJSON{State: st, Summary: newSummaryViewJSON(view)})
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	v, err := s.ledger.GetSetting(r.Context(), key)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, settingJSON{Key: key, Value: v})
}

func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var req settingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	if err := s.ledger.SetSetting(r.Context(), key, strings.TrimSpace(req.Value)); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	v, err := s.ledger.GetSetting(r.Context(), key)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, settingJSON{Key: key, Value: v})
}
