package nitro

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	clientdist "github.com/nitro-dev/nitro/client/dist"
	"github.com/nitro-dev/nitro/pkg/router"
	"github.com/nitro-dev/nitro/pkg/scroll"
	"github.com/nitro-dev/nitro/pkg/session"
)

// Endpoints served by Handler.
const (
	ScrollPath  = "/_nitro/scroll"
	PagePath    = "/_nitro/page"
	ClientPath  = "/_nitro/client.js"
	MetricsPath = "/metrics"
)

// ClientScript is the tag layouts include to enable scroll restoration.
const ClientScript = template.HTML(`<script src="` + ClientPath + `" defer></script>`)

// Handler returns the HTTP handler of the application:
//
//	/metrics            Prometheus metrics, when Config.Metrics is set
//	<StaticPrefix>*     files from Config.Static
//	/_nitro/client.js   the browser client
//	/_nitro/scroll      the scroll channel (websocket)
//	/_nitro/page?path=  a page as JSON, for hash mode
//	/*                  pages (path mode) or the document shell (hash mode)
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	if a.config.MetricsHandler != nil {
		r.Method(http.MethodGet, MetricsPath, a.config.MetricsHandler)
	}
	if a.config.Static != nil {
		r.Handle(strings.TrimSuffix(a.config.StaticPrefix, "/")+"/*", http.HandlerFunc(a.serveStatic))
	}
	r.Get(ClientPath, serveClient)

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(a.config.Cookie))

		r.Handle(ScrollPath, scroll.Handler(a.scroll, func(req *http.Request) string {
			return session.ID(req.Context())
		}, scroll.WithHandlerLogger(a.logger)))
		r.Get(PagePath, a.serveFragment)
		r.HandleFunc("/*", a.servePage)
	})
	return r
}

// servePage serves full page loads. Each one fetches the session state
// again, with the browser's cookies.
func (a *App) servePage(w http.ResponseWriter, r *http.Request) {
	s := a.Session(session.ID(r.Context()))

	if a.Tree().Mode == router.HashMode {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		s.Refresh(r.Cookies())
		a.serveShell(w, r)
		return
	}

	if r.Method == http.MethodGet {
		s.Refresh(r.Cookies())
	} else {
		s.useCookies(r.Cookies())
	}
	res, err := s.Handle(r.Context(), r.Method, r.URL.RequestURI())
	switch {
	case errors.Is(err, ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		a.logger.Error("navigation failed",
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
			"error", err,
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if res.Redirect != "" {
		http.Redirect(w, r, res.Redirect, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(res.Status)
	w.Write([]byte("<!DOCTYPE html>\n"))
	w.Write([]byte(res.HTML))
}

// fragment is the JSON form of a Result.
type fragment struct {
	Status   int    `json:"status"`
	Redirect string `json:"redirect,omitempty"`
	Title    string `json:"title,omitempty"`
	HTML     string `json:"html,omitempty"`
}

func (a *App) serveFragment(w http.ResponseWriter, r *http.Request) {
	target, err := router.LocalPath(r.URL.Query().Get("path"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, fragment{Status: http.StatusBadRequest})
		return
	}

	s := a.Session(session.ID(r.Context()))
	s.useCookies(r.Cookies())
	res, err := s.Navigate(r.Context(), target)
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, fragment{Status: http.StatusNotFound})
		return
	case err != nil:
		a.logger.Error("navigation failed",
			"path", target,
			"request_id", chimw.GetReqID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, fragment{Status: http.StatusInternalServerError})
		return
	}

	writeJSON(w, http.StatusOK, fragment{
		Status:   res.Status,
		Redirect: res.Redirect,
		Title:    res.Title,
		HTML:     string(res.HTML),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

var shell = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html data-nitro-hash>
<head>
<meta charset="utf-8">
<title>{{.}}</title>
</head>
<body>
<div id="nitro-root"></div>
` + string(ClientScript) + `
</body>
</html>
`))

// serveShell serves the document hash mode renders pages into.
func (a *App) serveShell(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := shell.Execute(w, a.config.Name); err != nil {
		a.logger.Error("shell render failed", "error", err)
	}
}

var clientETag = func() string {
	sum := sha256.Sum256(clientdist.NitroJS)
	return fmt.Sprintf("%q", fmt.Sprintf("%x", sum[:]))
}()

func serveClient(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", clientETag)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=0, must-revalidate")

	if etagMatches(r.Header.Get("If-None-Match"), clientETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(clientdist.NitroJS)
}

func etagMatches(ifNoneMatch, etag string) bool {
	for _, part := range strings.Split(ifNoneMatch, ",") {
		candidate := strings.TrimPrefix(strings.TrimSpace(part), "W/")
		if candidate == etag {
			return true
		}
	}
	return false
}
