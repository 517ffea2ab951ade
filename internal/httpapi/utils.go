package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/yuqie6/YukiClanBattle/internal/dto"
)

const (
	// HeaderMemberID 由前置的鉴权代理写入，标识当前成员
	HeaderMemberID  = "X-Member-ID"
	HeaderRequestID = "X-Request-ID"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errCode int, msg string) {
	writeJSON(w, status, dto.Response{ErrCode: errCode, Msg: msg})
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, dto.Response{ErrCode: dto.ErrCodeOK, Code: "success", Data: data})
}

func readJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func memberID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(HeaderMemberID))
}

// statusRecorder 记录响应码；透传 Flush 以支持 SSE
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// instrument 注入请求 id 并记录指标
func (a *apiServer) instrument(route string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(rec, r)
		a.metrics.ObserveRequest(route, rec.status)
		slog.Debug("http 请求", "route", route, "method", r.Method, "status", rec.status, "request_id", reqID)
	}
}

func (a *apiServer) wrapGET(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		fn(w, r)
	}
}

func (a *apiServer) wrapPOST(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		fn(w, r)
	}
}

// writable 存储处于安全模式时拒绝写入
func (a *apiServer) writable(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.storage.SafeMode {
			writeError(w, http.StatusServiceUnavailable, http.StatusServiceUnavailable, "数据库处于安全模式，暂不接受写入")
			return
		}
		fn(w, r)
	}
}
