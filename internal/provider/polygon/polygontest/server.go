// Package polygontest serves a deterministic stand-in for the Polygon v2
// aggregates endpoint: NYSE-like trading days, stable prices, next_url paging,
// and switchable error and rate-limit answers.
package polygontest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

var eastern = func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
	return loc
}()

// Holidays observed by the fake exchange.
var Holidays = map[string]bool{
	"2022-12-26": true,
	"2023-01-02": true, "2023-01-16": true, "2023-02-20": true, "2023-04-07": true,
	"2023-05-29": true, "2023-06-19": true, "2023-07-04": true, "2023-09-04": true,
	"2023-11-23": true, "2023-12-25": true,
	"2024-01-01": true, "2024-01-15": true, "2024-02-19": true, "2024-03-29": true,
	"2024-05-27": true, "2024-06-19": true, "2024-07-04": true, "2024-09-02": true,
	"2024-11-28": true, "2024-12-25": true,
	"2025-01-01": true, "2025-01-09": true, "2025-01-20": true, "2025-02-17": true,
	"2025-04-18": true, "2025-05-26": true,
}

// TradingDay reports whether the Eastern date d is a session day.
func TradingDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday && !Holidays[d.Format(time.DateOnly)]
}

// Bar is one generated row.
type Bar struct {
	T int64   `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

// Server is an httptest server plus knobs.
type Server struct {
	*httptest.Server

	PageSize int              // rows per page before next_url; default 50000
	Now      func() time.Time // no bars at or after Now; default time.Now

	mu          sync.Mutex
	rateLimit   int             // next n requests answer "exceeded"
	errTickers  map[string]bool // answer with an error payload
	errOnPage   int             // fail this page number of every query; 0 disables
	emptyTicker map[string]bool // answer OK without results
	calls       map[string]int  // per ticker, counting every page
	urls        []string
}

// New starts a server. Call Close when done.
func New() *Server {
	s := &Server{
		PageSize:    50000,
		Now:         time.Now,
		errTickers:  map[string]bool{},
		emptyTicker: map[string]bool{},
		calls:       map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// RateLimitNext makes the next n requests answer with the quota error.
func (s *Server) RateLimitNext(n int) { s.mu.Lock(); s.rateLimit = n; s.mu.Unlock() }

// FailTicker makes every query for ticker return an error payload.
func (s *Server) FailTicker(ticker string) { s.mu.Lock(); s.errTickers[ticker] = true; s.mu.Unlock() }

// EmptyTicker makes ticker answer status OK with no results.
func (s *Server) EmptyTicker(ticker string) { s.mu.Lock(); s.emptyTicker[ticker] = true; s.mu.Unlock() }

// FailPage makes page n (1-based) of every query an error page.
func (s *Server) FailPage(n int) { s.mu.Lock(); s.errOnPage = n; s.mu.Unlock() }

// Calls returns the number of requests served for ticker.
func (s *Server) Calls(ticker string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[ticker]
}

// TotalCalls returns the number of requests served.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}

// URLs returns the request URIs seen, in order.
func (s *Server) URLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.urls...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handle serves /v2/aggs/ticker/{T}/range/{mult}/{span}/{from}/{to}.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 9 || parts[0] != "v2" || parts[1] != "aggs" || parts[2] != "ticker" || parts[4] != "range" {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "NOT_FOUND", "message": "unknown path"})
		return
	}
	ticker := parts[3]
	mult, err1 := strconv.Atoi(parts[5])
	span := parts[6]
	from, err2 := strconv.ParseInt(parts[7], 10, 64)
	to, err3 := strconv.ParseInt(parts[8], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || mult < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "ERROR", "error": "bad request"})
		return
	}
	if r.URL.Query().Get("apiKey") == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "ERROR", "error": "API Key was not provided"})
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("cursor"))
	page := offset/s.pageSize() + 1

	s.mu.Lock()
	s.calls[ticker]++
	s.urls = append(s.urls, r.URL.RequestURI())
	limited := s.rateLimit > 0
	if limited {
		s.rateLimit--
	}
	failed := s.errTickers[ticker] || (s.errOnPage > 0 && s.errOnPage == page)
	empty := s.emptyTicker[ticker]
	s.mu.Unlock()

	switch {
	case limited:
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ERROR",
			"error":  "You've exceeded the maximum requests per minute, please wait or upgrade your subscription to continue. https://polygon.io/pricing",
		})
		return
	case failed:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ERROR", "request_id": "x", "error": "Unknown API Key"})
		return
	case empty:
		writeJSON(w, http.StatusOK, map[string]any{"ticker": ticker, "status": "OK", "queryCount": 0, "resultsCount": 0})
		return
	}

	all := Generate(span, mult, time.UnixMilli(from), time.UnixMilli(to), s.Now())
	end := offset + s.pageSize()
	if end > len(all) {
		end = len(all)
	}
	if offset > len(all) {
		offset = len(all)
	}
	rows := all[offset:end]
	resp := map[string]any{
		"ticker":       ticker,
		"status":       "OK",
		"adjusted":     true,
		"queryCount":   len(rows),
		"resultsCount": len(rows),
		"request_id":   fmt.Sprintf("req-%d", page),
	}
	if len(all) > 0 {
		resp["results"] = rows
	}
	if end < len(all) {
		resp["next_url"] = fmt.Sprintf("%s%s?cursor=%d", s.URL, r.URL.Path, end)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) pageSize() int {
	if s.PageSize < 1 {
		return 50000
	}
	return s.PageSize
}

// Generate returns the bars the fake serves for one query. Bars are a pure
// function of their own timestamp, so any two windows agree where they overlap.
// Week-and-larger bars are stamped at Eastern midnight of their period's start and
// are served when any session of the period falls in the window, so like Polygon
// the first one may be stamped before from.
func Generate(span string, mult int, from, to, now time.Time) []Bar {
	var out []Bar
	add := func(t time.Time) {
		if t.Before(from) || t.After(to) || !t.Before(now) {
			return
		}
		out = append(out, priced(t))
	}
	first := dateOf(from).AddDate(0, 0, -7)
	last := dateOf(to)
	switch span {
	case "second", "minute", "hour":
		step := map[string]time.Duration{"second": time.Second, "minute": time.Minute, "hour": time.Hour}[span] * time.Duration(mult)
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			if !TradingDay(d) {
				continue
			}
			open := d.Add(4 * time.Hour)
			close := d.Add(20 * time.Hour)
			if span == "second" {
				// keep the fake cheap: only the first and last regular minutes trade
				for _, w := range [][2]time.Duration{{330 * time.Minute, 331 * time.Minute}, {959 * time.Minute, 961 * time.Minute}} {
					for t := d.Add(w[0]); t.Before(d.Add(w[1])); t = t.Add(step) {
						add(t)
					}
				}
				continue
			}
			for t := open; t.Before(close); t = t.Add(step) {
				add(t)
			}
		}
	case "day":
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			if TradingDay(d) && epochDay(d)%mult == 0 {
				add(d)
			}
		}
	case "week", "month", "quarter", "year":
		seen := map[time.Time]bool{}
		for d := dateOf(from); !d.After(last); d = d.AddDate(0, 0, 1) {
			if !TradingDay(d) {
				continue
			}
			b := bucket(span, mult, d)
			if !seen[b] && b.Before(now) {
				seen[b] = true
				out = append(out, priced(b))
			}
		}
	}
	return out
}

func dateOf(t time.Time) time.Time {
	e := t.In(eastern)
	return time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, eastern)
}

func epochDay(d time.Time) int {
	return int(time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// bucket returns the Eastern midnight that opens d's aggregation period.
func bucket(span string, mult int, d time.Time) time.Time {
	switch span {
	case "week":
		sunday := d.AddDate(0, 0, -int(d.Weekday()))
		weeks := epochDay(sunday) / 7
		return sunday.AddDate(0, 0, -7*(weeks%mult))
	case "month":
		m := (int(d.Month()) - 1) / mult * mult
		return time.Date(d.Year(), time.Month(m+1), 1, 0, 0, 0, 0, eastern)
	case "quarter":
		m := (int(d.Month()) - 1) / (3 * mult) * (3 * mult)
		return time.Date(d.Year(), time.Month(m+1), 1, 0, 0, 0, 0, eastern)
	default:
		return time.Date(d.Year()-d.Year()%mult, 1, 1, 0, 0, 0, 0, eastern)
	}
}

func priced(t time.Time) Bar {
	m := t.Unix() / 60
	base := 100 + float64(m%5000)/100
	return Bar{
		T: t.UnixMilli(),
		O: base,
		H: base + 1,
		L: base - 1,
		C: base + 0.25,
		V: float64(1000 + m%777),
	}
}
