package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	logx "homehub/pkg/logx"
)

const maxImageBytes = 1 << 20 // 1 MiB

var allowedImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// handleImageUpload accepts a multipart "file" field, stores it under the
// static image directory and returns its public URL. The stored name is
// timestamped to avoid collisions.
func (s *Server) handleImageUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		fail(w, "image too large, limit is 1MB")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		fail(w, "missing file field")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		fail(w, "unsupported image type")
		return
	}

	name := fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
	dir := filepath.Join(s.cfg.StaticDir, "image")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Error("image dir create failed", logx.Err(err))
		fail(w, "upload failed")
		return
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		s.log.Error("image create failed", logx.Err(err))
		fail(w, "upload failed")
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		s.log.Error("image write failed", logx.Err(err))
		fail(w, "upload failed")
		return
	}

	ok(w, map[string]string{"url": "/static/image/" + name})
}
