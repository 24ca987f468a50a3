package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rupaiya/internal/analytics"
	"rupaiya/internal/assistant"
	"rupaiya/internal/core"
	"rupaiya/internal/export"
	"rupaiya/internal/importer"
	"rupaiya/internal/log"
)

var errNoImportSource = errors.New("import source not configured")

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.deps.Ledger.Ping(ctx); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	l, err := s.deps.Ledger.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse(l).Write(w)
}

// addHandler parses the body into an input and stores it through add.
func addHandler[In any, Out any](parse func(*RequestBodyParser) (In, error), add func(context.Context, In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := NewRequestBodyParser(w, r)
		if err := p.Parse(); err != nil {
			writeError(w, r, log.OpParse, err)
			return
		}
		in, err := parse(p)
		if err != nil {
			writeError(w, r, log.OpValidate, err)
			return
		}
		rec, err := add(r.Context(), in)
		if err != nil {
			writeError(w, r, log.OpCreate, err)
			return
		}
		NewJSONResponse(rec).Status(http.StatusCreated).Write(w)
	}
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	addHandler(parseIncomeInput, s.deps.Ledger.AddIncome)(w, r)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	addHandler(parseExpenseInput, s.deps.Ledger.AddExpense)(w, r)
}

func (s *Server) handleAddInvestment(w http.ResponseWriter, r *http.Request) {
	addHandler(parseInvestmentInput, s.deps.Ledger.AddInvestment)(w, r)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.deps.Ledger.Delete(r.Context(), kind, r.PathValue("id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	d, err := s.deps.Ledger.Dashboard(r.Context(), day)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse(d).Write(w)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tf, err := parseTimeframe(q)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	b, err := s.deps.Ledger.Breakdown(r.Context(), tf, sanitizeInput(q.Get("period")))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse(b).Write(w)
}

type seriesResponse struct {
	Year     int                     `json:"year"`
	Years    []int                   `json:"years"`
	HasData  bool                    `json:"hasData"`
	Points   []analytics.SeriesPoint `json:"points"`
	Savings  []analytics.ViewPoint   `json:"savings"`
	Expenses []analytics.ViewPoint   `json:"expenses"`
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	year, err := parseYear(r.URL.Query(), now)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	series, err := s.deps.Ledger.Series(r.Context(), year)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	years, err := s.deps.Ledger.Years(r.Context(), now)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse(seriesResponse{
		Year:     series.Year,
		Years:    years,
		HasData:  series.HasData(),
		Points:   series.Points,
		Savings:  series.SavingsView(),
		Expenses: series.ExpensesView(),
	}).Write(w)
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse(core.SuggestedLabels()).Header("Cache-Control", "public, max-age=3600").Write(w)
}

type importResponse struct {
	importer.Report
	Message string `json:"message"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if s.deps.Source == nil {
		writeError(w, r, log.OpImport, errNoImportSource)
		return
	}
	rep, err := s.deps.Ledger.Import(r.Context(), s.deps.Source)
	if err != nil {
		writeError(w, r, log.OpImport, err)
		return
	}
	NewJSONResponse(importResponse{Report: rep, Message: rep.Message()}).Write(w)
}

type chatResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := parseChatRequest(w, r)
	if err != nil {
		writeError(w, r, log.OpChat, err)
		return
	}
	if s.deps.Assistant == nil {
		writeError(w, r, log.OpChat, assistant.ErrNotConfigured)
		return
	}
	snap, err := s.deps.Ledger.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, log.OpChat, err)
		return
	}
	answer, err := s.deps.Assistant.Ask(r.Context(), snap, req.History, req.Question)
	if err != nil {
		writeError(w, r, log.OpChat, err)
		return
	}
	NewJSONResponse(chatResponse{Answer: answer}).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	snap, err := s.deps.Ledger.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Filename()))
	if err := export.Write(w, f, snap); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Export failed", log.FieldError, err.Error())
	}
}

func (s *Server) handleSecurityMetrics(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse(s.SecurityMetrics()).Write(w)
}
