package journal

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/xrsession/internal/httputil"
)

// AttachAdminRoutes mounts a tailsql console over the journal at
// /debug/tailsql/ and a JSON session listing at /debug/xr-sessions.
func (j *Journal) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+j.path, j.db, &tailsql.DBOptions{
		Label: "XR session journal",
	})
	debug.Handle("tailsql/", "SQL live debugging of the session journal", tsql.NewMux())

	debug.HandleFunc("xr-sessions", "recorded immersive sessions (?limit=N, ?session=ID for events)", func(w http.ResponseWriter, r *http.Request) {
		var (
			body interface{}
			err  error
		)
		if id := r.URL.Query().Get("session"); id != "" {
			body, err = j.Events(id)
		} else {
			limit := 50
			if s := r.URL.Query().Get("limit"); s != "" {
				if limit, err = strconv.Atoi(s); err != nil {
					httputil.BadRequest(w, "invalid limit")
					return
				}
			}
			body, err = j.Sessions(limit)
		}
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, body)
	})
	return nil
}
