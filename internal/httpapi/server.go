package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yuqie6/YukiClanBattle/internal/dto"
	"github.com/yuqie6/YukiClanBattle/internal/eventbus"
	"github.com/yuqie6/YukiClanBattle/internal/observability"
	"github.com/yuqie6/YukiClanBattle/internal/service"
	"github.com/yuqie6/YukiClanBattle/internal/uiassets"
)

// Server 会战 HTTP 服务
type Server struct {
	ln      net.Listener
	srv     *http.Server
	baseURL string
}

// Options 启动参数。App/Storage 为 /health 中的静态部分
type Options struct {
	ListenAddr     string // e.g. "127.0.0.1:8080"
	RequestTimeout time.Duration

	Registry *service.Registry
	Hub      *eventbus.Hub
	Metrics  *observability.Metrics
	// Panel 为空时使用内置会战面板
	Panel fs.FS

	App     dto.AppStatusDTO
	Storage dto.StorageStatusDTO
}

// Start 监听并在后台提供服务；ctx 取消时自动关闭
func Start(ctx context.Context, opts Options) (*Server, error) {
	if strings.TrimSpace(opts.ListenAddr) == "" {
		opts.ListenAddr = "127.0.0.1:0"
	}
	handler, err := NewHandler(opts)
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", opts.ListenAddr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		ln: ln,
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		baseURL: "http://" + ln.Addr().String(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server 异常退出", "error", err)
		}
	}()

	slog.Info("HTTP 已启动", "base_url", s.baseURL)
	return s, nil
}

// NewHandler 构建完整路由，不监听端口
func NewHandler(opts Options) (http.Handler, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry 不能为空")
	}
	if opts.Hub == nil {
		opts.Hub = eventbus.NewHub()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}

	api := newAPI(opts)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", api.instrument("/health", api.wrapGET(api.handleHealth)))
	mux.HandleFunc("/api/events", api.instrument("/api/events", api.wrapGET(api.handleSSE)))
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics.Handler())
	}
	api.registerJSONRoutes(mux)

	panel := opts.Panel
	if panel == nil {
		panel = uiassets.FS()
	}
	mux.Handle("/", panelHandler(panel, "index.html"))
	return mux, nil
}

func (s *Server) BaseURL() string {
	if s == nil {
		return ""
	}
	return s.baseURL
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
