package httpapi

import (
	"log"
	"net/http"
	"strconv"

	"kanza-admin-go/internal/models"
	"kanza-admin-go/internal/services"

	"github.com/gorilla/websocket"
)

type DashboardCounts struct {
	Categories    int `json:"categories"`
	Courses       int `json:"courses"`
	Videos        int `json:"videos"`
	Auctions      int `json:"auctions"`
	Plans         int `json:"plans"`
	Users         int `json:"users"`
	Notifications int `json:"notifications"`
	Pages         int `json:"pages"`
}

type DashboardResponse struct {
	Counts  DashboardCounts        `json:"counts"`
	Active  DashboardCounts        `json:"active"`
	Metrics *services.MetricSample `json:"metrics"`
}

func (s *Server) countRows(table string, activeOnly bool) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM ` + table
	if activeOnly {
		return n, s.DB.Get(&n, s.DB.Rebind(query+` WHERE status = ?`), models.StatusActive)
	}
	return n, s.DB.Get(&n, query)
}

// Dashboard is deliberately uncached: it is the one screen where admins
// expect live numbers.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	var counts, active DashboardCounts
	targets := []struct {
		table string
		all   *int
		act   *int
	}{
		{"categories", &counts.Categories, &active.Categories},
		{"courses", &counts.Courses, &active.Courses},
		{"course_videos", &counts.Videos, &active.Videos},
		{"auctions", &counts.Auctions, &active.Auctions},
		{"subscription_plans", &counts.Plans, &active.Plans},
		{"users", &counts.Users, &active.Users},
		{"notifications", &counts.Notifications, &active.Notifications},
		{"pages", &counts.Pages, &active.Pages},
	}
	for _, t := range targets {
		all, err := s.countRows(t.table, false)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		act, err := s.countRows(t.table, true)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		*t.all = all
		*t.act = act
	}
	resp := DashboardResponse{Counts: counts, Active: active}
	samples, err := services.LatestMetrics(s.DB, 1)
	if err == nil && len(samples) > 0 {
		resp.Metrics = &samples[0]
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) MetricsHistory(w http.ResponseWriter, r *http.Request) {
	limit := 60
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	samples, err := services.LatestMetrics(s.DB, limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"data": samples})
}

var metricsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// MetricsSocket authenticates via ?token=, since browsers cannot set an
// Authorization header on a websocket handshake.
func (s *Server) MetricsSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	token, claims, err := s.Tokens.ParseToken(tokenStr)
	if err != nil || !token.Valid || claims["typ"] != "access" {
		WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	conn, err := metricsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("metrics socket upgrade: %v", err)
		return
	}
	s.MetricsHub.Add(conn)
	defer func() {
		s.MetricsHub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
