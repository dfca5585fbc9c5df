package httpapi

import (
	"errors"
	"net/http"

	"homehub/internal/store"
	logx "homehub/pkg/logx"
)

type crontabSaveRequest struct {
	ID       FlexID `json:"id"`
	Schedule string `json:"schedule"` // "minute hour dom month dow"
}

type crontabRow struct {
	ID       int64  `json:"id"`
	Schedule string `json:"schedule"`
}

func (s *Server) handleCrontabSave(w http.ResponseWriter, r *http.Request) {
	var req crontabSaveRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, "invalid request body")
		return
	}
	id, err := s.st.Crontabs.Save(r.Context(), req.ID.Int64(), req.Schedule)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrValidation):
			fail(w, "crontab expression must have 5 fields")
		case errors.Is(err, store.ErrNotFound):
			fail(w, "crontab not found")
		default:
			s.log.Error("crontab save failed", logx.Err(err))
			fail(w, "save failed")
		}
		return
	}
	ok(w, map[string]int64{"id": id})
}

func (s *Server) handleCrontabList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 10)
	schedules, total, err := s.st.Crontabs.List(r.Context(), page, pageSize)
	if err != nil {
		s.log.Error("crontab list failed", logx.Err(err))
		fail(w, "list failed")
		return
	}
	rows := make([]crontabRow, 0, len(schedules))
	for _, c := range schedules {
		rows = append(rows, crontabRow{ID: c.ID, Schedule: store.CronString(c)})
	}
	okList(w, rows, total)
}

func (s *Server) handleCrontabDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, "invalid request body")
		return
	}
	if err := s.st.Crontabs.Delete(r.Context(), req.ID.Int64()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, "crontab not found")
			return
		}
		s.log.Error("crontab delete failed", logx.Err(err))
		fail(w, "delete failed")
		return
	}
	okMessage(w, "deleted")
}

type intervalSaveRequest struct {
	ID     FlexID `json:"id"`
	Every  int64  `json:"every"`
	Period string `json:"period"`
}

type intervalRow struct {
	ID     int64  `json:"id"`
	Every  int64  `json:"every"`
	Period string `json:"period"`
}

func (s *Server) handleIntervalSave(w http.ResponseWriter, r *http.Request) {
	var req intervalSaveRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, "invalid request body")
		return
	}
	id, err := s.st.Intervals.Save(r.Context(), req.ID.Int64(), req.Every, req.Period)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrValidation):
			fail(w, "invalid period parameter")
		case errors.Is(err, store.ErrNotFound):
			fail(w, "interval not found")
		default:
			s.log.Error("interval save failed", logx.Err(err))
			fail(w, "save failed")
		}
		return
	}
	ok(w, map[string]int64{"id": id})
}

func (s *Server) handleIntervalList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 10)
	schedules, total, err := s.st.Intervals.List(r.Context(), page, pageSize)
	if err != nil {
		s.log.Error("interval list failed", logx.Err(err))
		fail(w, "list failed")
		return
	}
	rows := make([]intervalRow, 0, len(schedules))
	for _, iv := range schedules {
		rows = append(rows, intervalRow{ID: iv.ID, Every: iv.Every, Period: iv.Period})
	}
	okList(w, rows, total)
}

func (s *Server) handleIntervalDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, "invalid request body")
		return
	}
	if err := s.st.Intervals.Delete(r.Context(), req.ID.Int64()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, "interval not found")
			return
		}
		s.log.Error("interval delete failed", logx.Err(err))
		fail(w, "delete failed")
		return
	}
	okMessage(w, "deleted")
}
