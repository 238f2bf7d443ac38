package nitro

import (
	"bytes"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// staticRelPath returns the file a static request addresses, relative to
// Config.Static. Traversal, absolute paths and platform separators are
// rejected so nothing outside the static tree is reachable.
func (a *App) staticRelPath(urlPath string) (string, bool) {
	prefix := a.config.StaticPrefix
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	rel, ok := strings.CutPrefix(urlPath, prefix)
	if !ok || rel == "" {
		return "", false
	}

	if strings.IndexByte(rel, 0) != -1 || strings.Contains(rel, "\\") {
		return "", false
	}
	// "/static//etc/passwd" leaves an absolute remainder.
	if strings.HasPrefix(rel, "/") {
		return "", false
	}
	// Dot segments are rejected before cleaning would hide them.
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if !fs.ValidPath(clean) || clean == "." {
		return "", false
	}
	return clean, true
}

func (a *App) serveStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	rel, ok := a.staticRelPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	f, err := a.config.Static.Open(rel)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	if strings.HasPrefix(rel, "assets/") {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=3600")
	}

	if rs, ok := f.(io.ReadSeeker); ok {
		http.ServeContent(w, r, rel, info.ModTime(), rs)
		return
	}
	// Some fs.FS files cannot seek; serve them whole.
	data, err := fs.ReadFile(a.config.Static, rel)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, rel, info.ModTime(), bytes.NewReader(data))
}
