// Package dashboard renders summary charts over the stored snapshot: a
// domain-breakdown pie and a top-posts-by-score bar, served as one HTML
// page straight from the storage backend.
package dashboard

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/rharvest/reddit-harvester/internal/domain"
	"github.com/rharvest/reddit-harvester/internal/storage"
)

const topPostCount = 10

// Server serves the dashboard page.
type Server struct {
	store  storage.Backend
	logger *slog.Logger
}

func NewServer(store storage.Backend, logger *slog.Logger) *Server {
	return &Server{store: store, logger: logger}
}

// Start blocks serving the dashboard on addr.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	s.logger.Info("dashboard listening", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.GetPosts(r.Context(), nil)
	if err != nil {
		s.logger.Error("loading posts for dashboard", "error", err)
		http.Error(w, "failed to load stored posts", http.StatusInternalServerError)
		return
	}

	if err := renderDomainPie(w, posts); err != nil {
		s.logger.Error("rendering pie", "error", err)
		return
	}
	if err := renderScoreBar(w, posts); err != nil {
		s.logger.Error("rendering bar", "error", err)
	}
}

func renderDomainPie(w http.ResponseWriter, posts []domain.Post) error {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Posts by Domain"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)

	counts := make(map[string]int)
	for _, p := range posts {
		counts[p.Domain]++
	}
	var items []opts.PieData
	for name, count := range counts {
		if name == "" {
			name = "(unknown)"
		}
		items = append(items, opts.PieData{Name: name, Value: count})
	}
	pie.AddSeries("Posts", items)
	return pie.Render(w)
}

func renderScoreBar(w http.ResponseWriter, posts []domain.Post) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title: fmt.Sprintf("Top %d Posts by Score", topPostCount),
	}))

	ranked := make([]domain.Post, len(posts))
	copy(ranked, posts)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > topPostCount {
		ranked = ranked[:topPostCount]
	}

	var labels []string
	var values []opts.BarData
	for _, p := range ranked {
		labels = append(labels, truncate(p.Title, 30))
		values = append(values, opts.BarData{Value: p.Score})
	}
	bar.SetXAxis(labels).AddSeries("Score", values)
	return bar.Render(w)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
