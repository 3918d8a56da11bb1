package adminui

import (
	"encoding/json"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/kirotools/admin-console/internal/runtimeconfig"
)

// configGlobal is the window property the front end reads its runtime
// configuration from.
const configGlobal = "window.__KIRO_CONFIG__"

// Handler serves the embedded UI bundle with runtime-config injection.
type Handler struct {
	assets fs.FS
	cfg    runtimeconfig.Config
}

// New constructs a Handler over the given bundle filesystem. The runtime
// configuration record is taken explicitly; the handler never reads the
// process-wide slot.
func New(assets fs.FS, cfg runtimeconfig.Config) *Handler {
	return &Handler{assets: assets, cfg: cfg}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")

	if strings.Contains(name, "..") {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	if name == "" {
		h.serveIndex(w)
		return
	}

	if data, err := fs.ReadFile(h.assets, name); err == nil {
		contentType := mime.TypeByExtension(path.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", cacheControl(name))
		_, _ = w.Write(data)
		return
	}

	// SPA fallback: unknown routes without a file extension get the index
	// so client-side routing keeps working on reload.
	if !isAssetPath(name) {
		h.serveIndex(w)
		return
	}

	http.Error(w, "Not found", http.StatusNotFound)
}

// serveIndex renders index.html with the runtime configuration injected
// before the closing head tag.
func (h *Handler) serveIndex(w http.ResponseWriter) {
	data, err := fs.ReadFile(h.assets, "index.html")
	if err != nil {
		http.Error(w, "Admin UI not built. Run the web bundle build first.", http.StatusNotFound)
		return
	}

	payload, err := json.Marshal(h.cfg)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	script := "<script>" + configGlobal + "=" + string(payload) + "</script>"
	html := strings.Replace(string(data), "</head>", script+"</head>", 1)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(html))
}

// cacheControl picks a caching policy by file type: HTML is always
// revalidated, hashed assets are immutable, everything else is short-lived.
func cacheControl(name string) string {
	switch {
	case strings.HasSuffix(name, ".html"):
		return "no-cache"
	case strings.HasPrefix(name, "assets/"):
		return "public, max-age=31536000, immutable"
	default:
		return "public, max-age=3600"
	}
}

// isAssetPath reports whether the final path segment looks like a file.
func isAssetPath(name string) bool {
	return strings.Contains(path.Base(name), ".")
}
