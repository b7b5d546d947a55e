package httpapi

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"juzbuild-api/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeList renders the standard list envelope.
func writeList(w http.ResponseWriter, items any, total, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"total":      total,
		"page":       page,
		"limit":      limit,
		"totalPages": totalPages,
	})
}

// writeMethodNotAllowed names the verbs the resource supports.
func writeMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeJSON(w, http.StatusMethodNotAllowed, map[string]any{
		"error": "method not allowed, use " + strings.Join(allowed, " or "),
	})
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func readBody(r *http.Request, maxBytes int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBytes))
}

var queryTimeLayouts = []string{time.RFC3339, "2006-01-02"}

func parseQueryTime(s string) *time.Time {
	for _, layout := range queryTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// listFilterFromQuery builds the service filter from the request. equalsKeys
// whitelists which query params become document equality filters; everything
// else (search, date range, paging, sort) is shared across entities.
func listFilterFromQuery(r *http.Request, equalsKeys []string) service.ListFilter {
	q := r.URL.Query()

	f := service.ListFilter{
		Equals: map[string]string{},
		Search: q.Get("search"),
		Page:   parseInt(q.Get("page"), 1),
		Limit:  parseInt(q.Get("limit"), 10),
		SortBy: q.Get("sortBy"),
	}
	for _, key := range equalsKeys {
		if v := q.Get(key); v != "" {
			f.Equals[key] = v
		}
	}
	if v := q.Get("createdAfter"); v != "" {
		f.CreatedAfter = parseQueryTime(v)
	}
	if v := q.Get("createdBefore"); v != "" {
		f.CreatedBefore = parseQueryTime(v)
	}

	// default sort: createdAt descending
	switch strings.ToLower(q.Get("sortDirection")) {
	case "asc":
		f.SortDesc = false
	case "desc":
		f.SortDesc = true
	default:
		f.SortDesc = true
	}
	return f
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
