package httpapi

import (
	"errors"
	"net/http"

	"homehub/internal/model"
	"homehub/internal/store"
	logx "homehub/pkg/logx"
)

type eventSaveRequest struct {
	ID         FlexID `json:"id"`
	Name       string `json:"name"`
	TargetDate string `json:"target_date"`
	Status     string `json:"status"`
}

type eventRow struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	TargetDate string `json:"target_date"`
	UserID     int64  `json:"user_id"`
	Status     string `json:"status"`
}

func toEventRow(e model.Event) eventRow {
	return eventRow{ID: e.ID, Name: e.Name, TargetDate: e.TargetDate, UserID: e.UserID, Status: e.Status}
}

func (s *Server) handleEventSave(w http.ResponseWriter, r *http.Request) {
	var req eventSaveRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, "invalid request body")
		return
	}
	info, _ := userFrom(r.Context())
	id, err := s.st.Events.Save(r.Context(), store.EventInput{
		ID:         req.ID.Int64(),
		Name:       req.Name,
		TargetDate: req.TargetDate,
		Status:     req.Status,
		UserID:     info.ID,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrValidation):
			fail(w, "target_date must be YYYY-MM-DD")
		case errors.Is(err, store.ErrNotFound):
			fail(w, "event not found")
		default:
			s.log.Error("event save failed", logx.Err(err))
			fail(w, "save failed")
		}
		return
	}
	ok(w, map[string]int64{"id": id})
}

func (s *Server) handleEventList(w http.ResponseWriter, r *http.Request) {
	info, _ := userFrom(r.Context())
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 10)
	events, total, err := s.st.Events.List(r.Context(), page, pageSize,
		r.URL.Query().Get("title"), info.ID, info.IsAdmin)
	if err != nil {
		s.log.Error("event list failed", logx.Err(err))
		fail(w, "list failed")
		return
	}
	rows := make([]eventRow, 0, len(events))
	for _, e := range events {
		rows = append(rows, toEventRow(e))
	}
	okList(w, rows, total)
}

func (s *Server) handleEventDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, "invalid request body")
		return
	}
	info, _ := userFrom(r.Context())
	ev, err := s.st.Events.Get(r.Context(), req.ID.Int64())
	if err != nil {
		fail(w, "event not found")
		return
	}
	if !info.IsAdmin && ev.UserID != info.ID {
		fail(w, "insufficient permissions")
		return
	}
	if err := s.st.Events.Delete(r.Context(), req.ID.Int64()); err != nil {
		s.log.Error("event delete failed", logx.Err(err))
		fail(w, "delete failed")
		return
	}
	okMessage(w, "deleted")
}
