package httpapi

import (
	"errors"
	"net/http"

	"homehub/internal/store"
	logx "homehub/pkg/logx"
)

type taskSaveRequest struct {
	ID           FlexID `json:"id"`
	Name         string `json:"name"`
	TaskType     string `json:"task_type"`
	ScheduleType string `json:"schedule_type"`
	IsActive     bool   `json:"is_active"`
	CrontabID    FlexID `json:"crontab_id"`
	IntervalID   FlexID `json:"interval_id"`
}

type taskRow struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	TaskType     string `json:"task_type"`
	ScheduleType string `json:"schedule_type"`
	IsActive     bool   `json:"is_active"`
	CrontabID    int64  `json:"crontab_id"`
	IntervalID   int64  `json:"interval_id"`
	Frequency    string `json:"frequency"`
	CreatedAt    string `json:"created_at"`
}

// handleTaskSave persists the row first, then syncs the runner registration.
// The row stays committed even when the sync fails; the report message tells
// the caller what happened.
func (s *Server) handleTaskSave(w http.ResponseWriter, r *http.Request) {
	var req taskSaveRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, "invalid request body")
		return
	}
	if req.Name == "" || req.TaskType == "" {
		fail(w, "name and task_type are required")
		return
	}

	task, err := s.st.Tasks.Save(r.Context(), store.TaskInput{
		ID:           req.ID.Int64(),
		Name:         req.Name,
		TaskType:     req.TaskType,
		ScheduleType: req.ScheduleType,
		IsActive:     req.IsActive,
		CrontabID:    req.CrontabID.Int64(),
		IntervalID:   req.IntervalID.Int64(),
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			fail(w, "task name already exists")
		case errors.Is(err, store.ErrNotFound):
			fail(w, "task not found")
		default:
			s.log.Error("task save failed", logx.Err(err))
			fail(w, "save failed")
		}
		return
	}

	rep := s.dispatcher.Sync(r.Context(), task)
	if !rep.OK {
		writeJSON(w, http.StatusOK, envelope{
			Code:    codeFail,
			Data:    map[string]int64{"id": task.ID},
			Message: rep.Message,
		})
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Code:    codeSuccess,
		Data:    map[string]int64{"id": task.ID},
		Message: rep.Message,
	})
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 10)
	views, total, err := s.st.Tasks.List(r.Context(), page, pageSize, r.URL.Query().Get("name"))
	if err != nil {
		s.log.Error("task list failed", logx.Err(err))
		fail(w, "list failed")
		return
	}
	rows := make([]taskRow, 0, len(views))
	for _, v := range views {
		rows = append(rows, taskRow{
			ID:           v.ID,
			Name:         v.Name,
			TaskType:     v.TaskType,
			ScheduleType: v.ScheduleType,
			IsActive:     v.IsActive,
			CrontabID:    v.CrontabID.Int64,
			IntervalID:   v.IntervalID.Int64,
			Frequency:    v.Frequency,
			CreatedAt:    v.CreatedAt,
		})
	}
	okList(w, rows, total)
}

// handleTaskDelete removes the row only. A live registration, if any, keeps
// firing until the process restarts or the task is saved inactive.
func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, "invalid request body")
		return
	}
	if err := s.st.Tasks.Delete(r.Context(), req.ID.Int64()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, "task not found")
			return
		}
		s.log.Error("task delete failed", logx.Err(err))
		fail(w, "delete failed")
		return
	}
	okMessage(w, "deleted")
}

type registryRow struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// handleTaskRegistry enumerates the task functions available for binding.
func (s *Server) handleTaskRegistry(w http.ResponseWriter, r *http.Request) {
	infos := s.registry.Tasks()
	rows := make([]registryRow, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, registryRow{Name: info.Name, Description: info.Description})
	}
	ok(w, rows)
}
