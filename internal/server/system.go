// Package server exposes the operational JSON API: triggering ingestion,
// recomputation and rotation, plus read access to the computed rankings.
// Triggers return 202 with a task id; the work runs on the single-worker
// queue.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"ladder-tracker/internal/domain"
	"ladder-tracker/internal/repository"
	"ladder-tracker/internal/seasons"
	"ladder-tracker/internal/service"
)

type SystemServer struct {
	svc      *service.LadderService
	queue    *service.Queue
	rotator  *seasons.Rotator
	seasons  *repository.SeasonRepository
	rankings *repository.RankingRepository
	logger   zerolog.Logger
}

func NewSystemServer(
	svc *service.LadderService,
	queue *service.Queue,
	rotator *seasons.Rotator,
	seasonRepo *repository.SeasonRepository,
	rankings *repository.RankingRepository,
	logger zerolog.Logger,
) *SystemServer {
	return &SystemServer{
		svc:      svc,
		queue:    queue,
		rotator:  rotator,
		seasons:  seasonRepo,
		rankings: rankings,
		logger:   logger,
	}
}

func (s *SystemServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /system/ingest", s.handleIngest)
	mux.HandleFunc("POST /system/recompute", s.handleRecompute)
	mux.HandleFunc("POST /system/rotate", s.handleRotate)
	mux.HandleFunc("GET /system/status", s.handleStatus)
	mux.HandleFunc("GET /ladder/seasons", s.handleSeasons)
	mux.HandleFunc("GET /ladder/ranking", s.handleRanking)
}

func (s *SystemServer) handleIngest(w http.ResponseWriter, r *http.Request) {
	mod := r.URL.Query().Get("mod")
	if mod == "" {
		writeError(w, http.StatusBadRequest, "mod is required")
		return
	}

	id, err := s.queue.Enqueue("ingest "+mod, func(ctx context.Context) error {
		_, err := s.svc.RunIngest(ctx, mod)
		return err
	})
	if err != nil {
		s.enqueueError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": id})
}

func (s *SystemServer) handleRecompute(w http.ResponseWriter, r *http.Request) {
	mod := r.URL.Query().Get("mod")
	if mod == "" {
		writeError(w, http.StatusBadRequest, "mod is required")
		return
	}
	seasonID, err := domain.ParseSeasonID(r.URL.Query().Get("season"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.queue.Enqueue("recompute "+mod+"/"+seasonID.String(), func(ctx context.Context) error {
		return s.svc.RecomputeSeason(ctx, mod, seasonID)
	})
	if err != nil {
		s.enqueueError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": id})
}

func (s *SystemServer) handleRotate(w http.ResponseWriter, r *http.Request) {
	id, err := s.queue.Enqueue("rotate", func(ctx context.Context) error {
		mods, err := s.svc.Mods(ctx)
		if err != nil {
			return err
		}
		for _, mod := range mods {
			if _, err := s.rotator.Rotate(ctx, mod); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.enqueueError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": id})
}

func (s *SystemServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	all, err := s.seasons.All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type seasonStatus struct {
		Mod       string `json:"mod"`
		ID        string `json:"id"`
		Title     string `json:"title"`
		Algorithm string `json:"algorithm"`
		Start     string `json:"start"`
		End       string `json:"end"`
		Active    bool   `json:"active"`
	}
	statuses := make([]seasonStatus, 0, len(all))
	for _, season := range all {
		statuses = append(statuses, seasonStatus{
			Mod:       season.Mod,
			ID:        season.ID.String(),
			Title:     season.Title,
			Algorithm: season.Algorithm,
			Start:     season.Start.Format("2006-01-02"),
			End:       season.End.Format("2006-01-02"),
			Active:    season.Active,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"pending_tasks": s.queue.Pending(),
		"seasons":       statuses,
	})
}

func (s *SystemServer) handleSeasons(w http.ResponseWriter, r *http.Request) {
	mod := r.URL.Query().Get("mod")
	if mod == "" {
		writeError(w, http.StatusBadRequest, "mod is required")
		return
	}
	list, err := s.seasons.ForMod(r.Context(), mod)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type seasonInfo struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Group     string `json:"group"`
		Algorithm string `json:"algorithm"`
		Start     string `json:"start"`
		End       string `json:"end"`
		Active    bool   `json:"active"`
	}
	out := make([]seasonInfo, 0, len(list))
	for _, season := range list {
		out = append(out, seasonInfo{
			ID:        season.ID.String(),
			Title:     season.Title,
			Group:     season.Group,
			Algorithm: season.Algorithm,
			Start:     season.Start.Format("2006-01-02"),
			End:       season.End.Format("2006-01-02"),
			Active:    season.Active,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *SystemServer) handleRanking(w http.ResponseWriter, r *http.Request) {
	mod := r.URL.Query().Get("mod")
	if mod == "" {
		writeError(w, http.StatusBadRequest, "mod is required")
		return
	}
	seasonID, err := domain.ParseSeasonID(r.URL.Query().Get("season"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.rankings.ForSeason(r.Context(), mod, seasonID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type rankingEntry struct {
		ProfileID  int64  `json:"profile_id"`
		Eligible   bool   `json:"eligible"`
		Comment    string `json:"comment,omitempty"`
		Wins       int    `json:"wins"`
		Losses     int    `json:"losses"`
		Rating     int    `json:"rating"`
		Difference int    `json:"difference"`
		Rank       *int   `json:"rank"`
	}
	out := make([]rankingEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, rankingEntry{
			ProfileID:  row.ProfileID,
			Eligible:   row.Eligible,
			Comment:    row.Comment,
			Wins:       row.Wins,
			Losses:     row.Losses,
			Rating:     row.Rating,
			Difference: row.Difference,
			Rank:       row.Rank,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *SystemServer) enqueueError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrQueueFull) {
		writeError(w, http.StatusServiceUnavailable, "task queue full, retry later")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
