package middleware

import (
	"mime"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sleipnir-web/sleipnir/request"
	"github.com/sleipnir-web/sleipnir/response"
	"github.com/sleipnir-web/sleipnir/router"
	"github.com/sleipnir-web/sleipnir/session"
)

// StaticHandler serves files from root. Register it on a wildcard route and
// pass the wildcard's parameter name, e.g.
//
//	rt.Get("/static/*filepath", middleware.StaticHandler("filepath", "./assets"))
//
// Directory requests fall back to index.html. Paths escaping the root via
// ".." are rejected.
func StaticHandler(wildcardParam, root string) router.Handler {
	notFound := func(w *response.Response) {
		w.SetStatus(response.StatusNotFound).Text("File Not Found")
	}

	return func(r *request.Request, w *response.Response, s *session.Session) {
		reqFilePath := r.PathParams[wildcardParam]

		// reject traversal and absolute paths before touching the filesystem
		cleanedPath := path.Clean(reqFilePath)
		if strings.Contains(cleanedPath, "..") || path.IsAbs(cleanedPath) {
			notFound(w)
			return
		}

		full := filepath.Join(root, filepath.FromSlash(cleanedPath))
		info, err := os.Stat(full)
		if err == nil && info.IsDir() {
			full = filepath.Join(full, "index.html")
			info, err = os.Stat(full)
		}
		if err != nil {
			notFound(w)
			return
		}

		f, err := os.Open(full)
		if err != nil {
			notFound(w)
			return
		}
		// the transport drains the stream during serialization and the
		// response owns the handle until then
		w.SetHeader("content-length", strconv.FormatInt(info.Size(), 10))
		if ctype := mime.TypeByExtension(filepath.Ext(full)); ctype != "" {
			w.SetHeader("content-type", ctype)
		}
		w.SetBodyStream(f)
	}
}
