package static

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/sasusavage/SourceScout/pkg/utils"
)

// Handler 从前端目录提供固定的几个静态文件。
type Handler struct {
	dir string
}

func New(dir string) *Handler {
	return &Handler{dir: dir}
}

// RegisterRoutes 注册 /, /index.html, /styles.css, /app.js。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.serve("index.html"))
	r.Get("/index.html", h.serve("index.html"))
	r.Get("/styles.css", h.serve("styles.css"))
	r.Get("/app.js", h.serve("app.js"))
}

func (h *Handler) serve(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(h.dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			utils.RespondError(w, http.StatusNotFound, "not found")
			return
		}
		// ServeFile 会把 /index.html 重定向到 /，这里直接写文件内容
		f, err := os.Open(path)
		if err != nil {
			utils.RespondError(w, http.StatusNotFound, "not found")
			return
		}
		defer f.Close()
		http.ServeContent(w, r, name, info.ModTime(), f)
	}
}
