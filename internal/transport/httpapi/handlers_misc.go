package httpapi

import (
	"net/http"

	logx "homehub/pkg/logx"
)

// handleScrape runs one synchronous scrape of the given listing page.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	created, err := s.scraper.ScrapePage(r.Context(), page)
	if err != nil {
		s.log.Error("scrape failed", logx.Int("page", page), logx.Err(err))
		fail(w, "scrape failed")
		return
	}
	ok(w, map[string]int{"created": created})
}

type msgSendRequest struct {
	UserID FlexID `json:"user_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// handleMsgSend pushes an ad-hoc message to one user's device.
func (s *Server) handleMsgSend(w http.ResponseWriter, r *http.Request) {
	var req msgSendRequest
	if err := decodeBody(r, &req); err != nil || req.Body == "" {
		fail(w, "invalid request body")
		return
	}
	u, err := s.st.Users.Get(r.Context(), req.UserID.Int64())
	if err != nil {
		fail(w, "user not found")
		return
	}
	if u.DeviceKey == "" {
		fail(w, "user has no device key")
		return
	}
	if err := s.sender.Send(r.Context(), u.DeviceKey, req.Body, req.Title); err != nil {
		s.log.Error("push send failed", logx.Int64("user", u.ID), logx.Err(err))
		fail(w, "send failed")
		return
	}
	okMessage(w, "sent")
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	if s.weather == nil {
		fail(w, "weather is not configured")
		return
	}
	report, err := s.weather.Current(r.Context())
	if err != nil {
		s.log.Error("weather lookup failed", logx.Err(err))
		fail(w, "weather lookup failed")
		return
	}
	ok(w, report)
}
