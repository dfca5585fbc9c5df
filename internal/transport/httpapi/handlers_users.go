package httpapi

import (
	"errors"
	"net/http"

	"homehub/internal/model"
	"homehub/internal/store"
	logx "homehub/pkg/logx"
)

type userSaveRequest struct {
	ID        FlexID `json:"id"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	IsAdmin   bool   `json:"is_admin"`
	DeviceKey string `json:"device_key"`
}

type userRow struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	IsAdmin   bool   `json:"is_admin"`
	DeviceKey string `json:"device_key"`
}

func toUserRow(u model.User) userRow {
	return userRow{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin, DeviceKey: u.DeviceKey}
}

func (s *Server) handleUserSave(w http.ResponseWriter, r *http.Request) {
	var req userSaveRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, "invalid request body")
		return
	}
	if req.ID.Int64() == 0 && (req.Username == "" || req.Password == "") {
		fail(w, "username and password are required")
		return
	}
	id, err := s.st.Users.Save(r.Context(), store.UserInput{
		ID:        req.ID.Int64(),
		Username:  req.Username,
		Password:  req.Password,
		IsAdmin:   req.IsAdmin,
		DeviceKey: req.DeviceKey,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			fail(w, "username already exists")
		case errors.Is(err, store.ErrNotFound):
			fail(w, "user not found")
		default:
			s.log.Error("user save failed", logx.Err(err))
			fail(w, "save failed")
		}
		return
	}
	ok(w, map[string]int64{"id": id})
}

func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", 10)
	users, total, err := s.st.Users.List(r.Context(), page, pageSize, r.URL.Query().Get("username"))
	if err != nil {
		s.log.Error("user list failed", logx.Err(err))
		fail(w, "list failed")
		return
	}
	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, toUserRow(u))
	}
	okList(w, rows, total)
}

type deleteRequest struct {
	ID FlexID `json:"id"`
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, "invalid request body")
		return
	}
	if err := s.st.Users.Delete(r.Context(), req.ID.Int64()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, "user not found")
			return
		}
		s.log.Error("user delete failed", logx.Err(err))
		fail(w, "delete failed")
		return
	}
	okMessage(w, "deleted")
}
