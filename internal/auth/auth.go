// Package auth issues and validates session tokens.
//
// A token is "<issued-unix>_<user-id>". The server side keeps
// "user:<id>" -> issued-unix in the injected cache with a TTL, plus the
// cached user info under the bare id. Both entries die together on logout.
package auth

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"homehub/internal/cache"
	"homehub/internal/store"
	logx "homehub/pkg/logx"
)

const qrStatePrefix = "qrcode_login:"

// UserInfo is the request-scoped identity attached by the auth middleware.
type UserInfo struct {
	ID       int64
	Username string
	IsAdmin  bool
}

type Config struct {
	TokenTTL   time.Duration // default 1h
	QRLoginTTL time.Duration // default 5m

	WechatAppID    string
	WechatRedirect string
}

type Service struct {
	cfg   Config
	users *store.UserStore
	cache *cache.Cache
	log   logx.Logger
}

func New(cfg Config, users *store.UserStore, c *cache.Cache, log logx.Logger) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.QRLoginTTL <= 0 {
		cfg.QRLoginTTL = 5 * time.Minute
	}
	return &Service{cfg: cfg, users: users, cache: c, log: log}
}

// Login checks credentials and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (string, UserInfo, error) {
	u, err := s.users.GetByCredentials(ctx, username, password)
	if err != nil {
		return "", UserInfo{}, err
	}
	info := UserInfo{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
	return s.issue(info), info, nil
}

func (s *Service) issue(info UserInfo) string {
	now := time.Now().Unix()
	s.cache.SetTTL(sessionKey(info.ID), strconv.FormatInt(now, 10), s.cfg.TokenTTL)
	s.cache.SetTTL(strconv.FormatInt(info.ID, 10), info, s.cfg.TokenTTL)
	return fmt.Sprintf("%d_%d", now, info.ID)
}

// Verify resolves a token back to its user info. Expired or tampered
// tokens read as invalid.
func (s *Service) Verify(token string) (UserInfo, bool) {
	stamp, idPart, ok := strings.Cut(token, "_")
	if !ok {
		return UserInfo{}, false
	}
	stored, ok := s.cache.Get(sessionKey0(idPart))
	if !ok {
		return UserInfo{}, false
	}
	if storedStamp, _ := stored.(string); storedStamp != stamp {
		return UserInfo{}, false
	}
	v, ok := s.cache.Get(idPart)
	if !ok {
		return UserInfo{}, false
	}
	info, ok := v.(UserInfo)
	return info, ok
}

// Logout drops the session. Unknown tokens are a no-op.
func (s *Service) Logout(token string) {
	_, idPart, ok := strings.Cut(token, "_")
	if !ok {
		return
	}
	s.cache.Delete(sessionKey0(idPart))
	s.cache.Delete(idPart)
}

// QRLoginURL starts a QR-code login session: a random state token marked
// pending until an already-authenticated user confirms it.
func (s *Service) QRLoginURL() (loginURL, loginToken string) {
	state := uuid.NewString()
	s.cache.SetTTL(qrStatePrefix+state, "pending", s.cfg.QRLoginTTL)

	u := fmt.Sprintf(
		"https://open.weixin.qq.com/connect/oauth2/authorize?appid=%s&redirect_uri=%s&response_type=code&scope=snsapi_userinfo&state=%s#wechat_redirect",
		s.cfg.WechatAppID, url.QueryEscape(s.cfg.WechatRedirect), state)
	return u, state
}

// QRLoginStatus polls a QR session. It returns (token, done) where done
// false means the session is still pending. An unknown or expired session
// returns an error.
func (s *Service) QRLoginStatus(ctx context.Context, loginToken string) (string, bool, error) {
	v, ok := s.cache.Get(qrStatePrefix + loginToken)
	if !ok {
		return "", false, fmt.Errorf("login session expired: %w", store.ErrNotFound)
	}
	raw, _ := v.(string)
	if raw == "pending" {
		return "", false, nil
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", false, fmt.Errorf("login session expired: %w", store.ErrNotFound)
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return "", false, err
	}
	// One-shot: the session dies once redeemed.
	s.cache.Delete(qrStatePrefix + loginToken)
	token := s.issue(UserInfo{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin})
	return token, true, nil
}

// QRLoginConfirm marks a pending QR session as confirmed by userID.
func (s *Service) QRLoginConfirm(loginToken string, userID int64) error {
	v, ok := s.cache.Get(qrStatePrefix + loginToken)
	if !ok {
		return fmt.Errorf("login session expired: %w", store.ErrNotFound)
	}
	if raw, _ := v.(string); raw != "pending" {
		return fmt.Errorf("login session expired: %w", store.ErrNotFound)
	}
	s.cache.SetTTL(qrStatePrefix+loginToken, strconv.FormatInt(userID, 10), s.cfg.QRLoginTTL)
	return nil
}

func sessionKey(id int64) string   { return "user:" + strconv.FormatInt(id, 10) }
func sessionKey0(id string) string { return "user:" + id }
