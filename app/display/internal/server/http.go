package server

import (
	"encoding/json"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/comp_index/app/display/internal/conf"
	"github.com/iWorld-y/comp_index/app/display/internal/service"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, svc *service.DisplayService, logger log.Logger) *http.Server {
	opts := []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != "" {
		if d, err := time.ParseDuration(c.Http.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}
	srv := http.NewServer(opts...)

	srv.HandleFunc("/api/v1/register", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			writeError(w, errors.BadRequest("METHOD_NOT_ALLOWED", "use POST"))
			return
		}
		var req service.AuthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.BadRequest("INVALID_BODY", err.Error()))
			return
		}
		if err := svc.Register(r.Context(), &req); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]string{"message": "ok"})
	})

	srv.HandleFunc("/api/v1/login", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			writeError(w, errors.BadRequest("METHOD_NOT_ALLOWED", "use POST"))
			return
		}
		var req service.AuthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.BadRequest("INVALID_BODY", err.Error()))
			return
		}
		reply, err := svc.Login(r.Context(), &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, reply)
	})

	srv.HandleFunc("/api/v1/runs", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			writeError(w, errors.BadRequest("METHOD_NOT_ALLOWED", "use POST"))
			return
		}
		var req service.StartRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.BadRequest("INVALID_BODY", err.Error()))
			return
		}
		summary, err := svc.StartRun(r.Context(), &req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, summary)
	})

	srv.HandleFunc("/api/v1/profile", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			writeError(w, errors.Unauthorized("AUTH_FAILED", "missing bearer token"))
			return
		}
		reply, err := svc.Profile(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, reply)
	})

	srv.HandleFunc("/api/v1/index/composite", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		q := r.URL.Query()
		reply, err := svc.GetComposite(r.Context(), q.Get("company_id"), q.Get("date"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, reply)
	})

	srv.HandleFunc("/api/v1/index/sub", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		q := r.URL.Query()
		reply, err := svc.GetSubIndex(r.Context(), q.Get("company_id"), q.Get("date"), q.Get("category"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, reply)
	})

	srv.HandleFunc("/api/v1/index/breakdown", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		q := r.URL.Query()
		reply, err := svc.GetBreakdown(r.Context(), q.Get("company_id"), q.Get("date"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, reply)
	})

	srv.HandleFunc("/api/v1/index/trend", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		q := r.URL.Query()
		demo, _ := strconv.ParseBool(q.Get("demo"))
		reply, err := svc.GetTrend(r.Context(), q.Get("company_id"), q.Get("as_of"), demo)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, reply)
	})

	return srv
}

// writeJSON 统一 JSON 响应
func writeJSON(w nethttp.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError 把业务错误翻译成带状态码的 JSON 响应
func writeError(w nethttp.ResponseWriter, err error) {
	se := errors.FromError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(int(se.Code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    se.Reason,
		"message": se.Message,
	})
}
