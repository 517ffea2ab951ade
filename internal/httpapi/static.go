package httpapi

import (
	"bytes"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
)

// panelHandler 会战面板静态资源；/clan/{clan_gid}/ 等未命中的路径回退到 index.html
func panelHandler(assetFS fs.FS, index string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeError(w, http.StatusMethodNotAllowed, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		upath := r.URL.Path
		if upath == "" || upath == "/" {
			serveAsset(w, r, assetFS, index)
			return
		}

		clean := strings.TrimPrefix(path.Clean(upath), "/")
		if strings.Contains(clean, "..") {
			http.NotFound(w, r)
			return
		}
		if _, err := fs.Stat(assetFS, clean); err == nil {
			serveAsset(w, r, assetFS, clean)
			return
		}
		serveAsset(w, r, assetFS, index)
	})
}

func serveAsset(w http.ResponseWriter, r *http.Request, assetFS fs.FS, name string) {
	f, err := assetFS.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil || stat.IsDir() {
		http.NotFound(w, r)
		return
	}
	if ctype := mime.TypeByExtension(path.Ext(name)); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	payload, err := io.ReadAll(f)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, name, stat.ModTime(), bytes.NewReader(payload))
}
