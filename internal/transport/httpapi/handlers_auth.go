package httpapi

import (
	"errors"
	"net/http"

	"homehub/internal/store"
	logx "homehub/pkg/logx"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		fail(w, "invalid request body")
		return
	}
	token, info, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, "wrong username or password")
			return
		}
		s.log.Error("login failed", logx.Err(err))
		fail(w, "login failed")
		return
	}
	ok(w, loginResponse{Token: token, ID: info.ID, Username: info.Username, IsAdmin: info.IsAdmin})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := r.Header.Get("token"); token != "" {
		s.auth.Logout(token)
	}
	okMessage(w, "logged out")
}

func (s *Server) handleQRLoginURL(w http.ResponseWriter, r *http.Request) {
	loginURL, loginToken := s.auth.QRLoginURL()
	ok(w, map[string]string{"url": loginURL, "login_token": loginToken})
}

type qrLoginRequest struct {
	LoginToken string `json:"login_token"`
}

func (s *Server) handleQRLoginStatus(w http.ResponseWriter, r *http.Request) {
	var req qrLoginRequest
	if err := decodeBody(r, &req); err != nil || req.LoginToken == "" {
		fail(w, "invalid request body")
		return
	}
	token, done, err := s.auth.QRLoginStatus(r.Context(), req.LoginToken)
	if err != nil {
		fail(w, "login session expired")
		return
	}
	if !done {
		ok(w, map[string]any{"pending": true})
		return
	}
	ok(w, map[string]any{"pending": false, "token": token})
}

func (s *Server) handleQRLoginConfirm(w http.ResponseWriter, r *http.Request) {
	var req qrLoginRequest
	if err := decodeBody(r, &req); err != nil || req.LoginToken == "" {
		fail(w, "invalid request body")
		return
	}
	info, _ := userFrom(r.Context())
	if err := s.auth.QRLoginConfirm(req.LoginToken, info.ID); err != nil {
		fail(w, "login session expired")
		return
	}
	okMessage(w, "login confirmed")
}
