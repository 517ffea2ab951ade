package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/yuqie6/YukiClanBattle/internal/dto"
	"github.com/yuqie6/YukiClanBattle/internal/eventbus"
	"github.com/yuqie6/YukiClanBattle/internal/observability"
	"github.com/yuqie6/YukiClanBattle/internal/schema"
	"github.com/yuqie6/YukiClanBattle/internal/service"
)

type apiServer struct {
	reg       *service.Registry
	hub       *eventbus.Hub
	metrics   *observability.Metrics
	timeout   time.Duration
	app       dto.AppStatusDTO
	storage   dto.StorageStatusDTO
	startTime time.Time
	queries   map[QueryOp]queryRoute
}

func newAPI(opts Options) *apiServer {
	a := &apiServer{
		reg:       opts.Registry,
		hub:       opts.Hub,
		metrics:   opts.Metrics,
		timeout:   opts.RequestTimeout,
		app:       opts.App,
		storage:   opts.Storage,
		startTime: time.Now(),
	}
	a.queries = a.queryTable()
	return a
}

// ========== routes ==========

func (a *apiServer) registerJSONRoutes(mux *http.ServeMux) {
	a.handle(mux, "/api/clanbattle/{name}", a.wrapGET(a.handleQuery))

	a.handle(mux, "/api/clanbattle/report_record", a.wrapPOST(a.writable(a.reportRecord)))
	a.handle(mux, "/api/clanbattle/report_queue", a.wrapPOST(a.writable(a.reportQueue)))
	a.handle(mux, "/api/clanbattle/report_unqueue", a.wrapPOST(a.writable(a.reportUnqueue)))
	a.handle(mux, "/api/clanbattle/report_subscribe", a.wrapPOST(a.writable(a.reportSubscribe)))
	a.handle(mux, "/api/clanbattle/report_unsubscribe", a.wrapPOST(a.writable(a.reportUnsubscribe)))
	a.handle(mux, "/api/clanbattle/report_ontree", a.wrapPOST(a.writable(a.reportOnTree)))
	a.handle(mux, "/api/clanbattle/report_offtree", a.wrapPOST(a.writable(a.reportOffTree)))
	a.handle(mux, "/api/clanbattle/report_sl", a.wrapPOST(a.writable(a.reportSL)))
	a.handle(mux, "/api/clanbattle/report_undo", a.wrapPOST(a.writable(a.reportUndo)))
	a.handle(mux, "/api/clanbattle/query_record", a.wrapPOST(a.queryRecord))
	a.handle(mux, "/api/clanbattle/change_current_clanbattle_data_num", a.wrapPOST(a.writable(a.changeArchive)))
}

func (a *apiServer) handle(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.HandleFunc(pattern, a.instrument(pattern, fn))
}

func (a *apiServer) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), a.timeout)
}

// clanFor 校验当前成员属于该公会并取得公会；失败时已写出响应
func (a *apiServer) clanFor(ctx context.Context, w http.ResponseWriter, member, clanGID string) (*service.Clan, bool) {
	if member == "" {
		writeError(w, http.StatusUnauthorized, dto.ErrCodeSession, "会话错误，请重新登录")
		return nil, false
	}
	ok, err := a.joined(ctx, member, clanGID)
	if err != nil {
		a.internalError(w, err)
		return nil, false
	}
	if !ok {
		writeError(w, http.StatusOK, dto.ErrCodeForbidden, "您还没有加入该公会")
		return nil, false
	}
	clan, err := a.reg.Clan(ctx, clanGID)
	if errors.Is(err, service.ErrClanNotFound) {
		writeError(w, http.StatusNotFound, dto.ErrCodeNotFound, "公会不存在")
		return nil, false
	}
	if err != nil {
		a.internalError(w, err)
		return nil, false
	}
	return clan, true
}

func (a *apiServer) joined(ctx context.Context, member, clanGID string) (bool, error) {
	clans, err := a.reg.JoinedClans(ctx, member)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(clans, func(c schema.Clan) bool { return c.ClanID == clanGID }), nil
}

func (a *apiServer) internalError(w http.ResponseWriter, err error) {
	slog.Error("处理请求失败", "error", err)
	writeError(w, http.StatusInternalServerError, http.StatusInternalServerError, err.Error())
}

// writeResult 引擎结果码：success 返回数据，其余按业务错误返回提示
func writeResult(w http.ResponseWriter, code string, data any) {
	if code == "success" {
		writeOK(w, data)
		return
	}
	writeJSON(w, http.StatusOK, dto.Response{ErrCode: dto.ErrCodeForbidden, Code: code, Msg: service.ResultMessage(code)})
}

func writeBool(w http.ResponseWriter, ok bool, failMsg string) {
	if ok {
		writeOK(w, nil)
		return
	}
	writeError(w, http.StatusOK, dto.ErrCodeForbidden, failMsg)
}

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := readJSON(r, out); err != nil {
		writeError(w, http.StatusBadRequest, dto.ErrCodeBadRequest, "请求格式错误: "+err.Error())
		return false
	}
	return true
}

// ========== GET 查询 ==========

// QueryOp GET /api/clanbattle/{name} 支持的查询
type QueryOp string

const (
	QueryJoinedClan     QueryOp = "get_joined_clan"
	QueryBossStatus     QueryOp = "boss_status"
	QueryMemberList     QueryOp = "member_list"
	QueryInQueue        QueryOp = "get_in_queue"
	QueryOnTreeList     QueryOp = "on_tree_list"
	QuerySubscribeList  QueryOp = "subscribe_list"
	QueryBattleStatus   QueryOp = "battle_status"
	QueryTodayTotal     QueryOp = "today_total"
	QueryRecentRecord   QueryOp = "recent_record"
	QueryCurrentArchive QueryOp = "current_clanbattle_data_num"
)

type queryRoute struct {
	needsClan bool
	fn        func(ctx context.Context, member string, clan *service.Clan) (any, error)
}

func (a *apiServer) queryTable() map[QueryOp]queryRoute {
	return map[QueryOp]queryRoute{
		QueryJoinedClan: {fn: func(ctx context.Context, member string, _ *service.Clan) (any, error) {
			return a.reg.JoinedClans(ctx, member)
		}},
		QueryBossStatus: {needsClan: true, fn: func(ctx context.Context, _ string, c *service.Clan) (any, error) {
			return c.BossStatus(ctx)
		}},
		QueryMemberList: {needsClan: true, fn: func(ctx context.Context, _ string, c *service.Clan) (any, error) {
			return c.Members(ctx)
		}},
		QueryBattleStatus: {needsClan: true, fn: func(ctx context.Context, _ string, c *service.Clan) (any, error) {
			return c.Members(ctx)
		}},
		QueryInQueue: {needsClan: true, fn: func(ctx context.Context, _ string, c *service.Clan) (any, error) {
			slots, err := c.InProgress(ctx, 0)
			return groupByBoss(slots, func(s schema.ChallengeSlot) int { return s.Boss }), err
		}},
		QueryOnTreeList: {needsClan: true, fn: func(ctx context.Context, _ string, c *service.Clan) (any, error) {
			holds, err := c.OnTree(ctx, 0)
			return groupByBoss(holds, func(h schema.TreeHold) int { return h.Boss }), err
		}},
		QuerySubscribeList: {needsClan: true, fn: func(ctx context.Context, _ string, c *service.Clan) (any, error) {
			subs, err := c.Subscriptions(ctx, 0, 0)
			return groupByBoss(subs, func(s schema.Subscription) int { return s.Boss }), err
		}},
		QueryTodayTotal: {needsClan: true, fn: func(ctx context.Context, _ string, c *service.Clan) (any, error) {
			return c.TodayStatusTotal(ctx)
		}},
		QueryRecentRecord: {needsClan: true, fn: func(ctx context.Context, member string, c *service.Clan) (any, error) {
			records, _, err := c.RecentRecords(ctx, member, 0)
			return records, err
		}},
		QueryCurrentArchive: {needsClan: true, fn: func(ctx context.Context, _ string, c *service.Clan) (any, error) {
			return c.CurrentArchive(ctx)
		}},
	}
}

// groupByBoss 按 Boss 编号分组，"1".."5" 均有键
func groupByBoss[T any](items []T, boss func(T) int) map[string][]T {
	out := make(map[string][]T, schema.BossCount)
	for i := 1; i <= schema.BossCount; i++ {
		out[strconv.Itoa(i)] = []T{}
	}
	for _, it := range items {
		key := strconv.Itoa(boss(it))
		out[key] = append(out[key], it)
	}
	return out
}

func (a *apiServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	route, ok := a.queries[QueryOp(r.PathValue("name"))]
	if !ok {
		writeError(w, http.StatusNotFound, dto.ErrCodeNotFound, "找不到该路由")
		return
	}
	member := memberID(r)
	if member == "" {
		writeError(w, http.StatusUnauthorized, dto.ErrCodeSession, "会话错误，请重新登录")
		return
	}

	ctx, cancel := a.ctx(r)
	defer cancel()

	var clan *service.Clan
	if route.needsClan {
		if clan, ok = a.clanFor(ctx, w, member, r.URL.Query().Get("clan_gid")); !ok {
			return
		}
	}
	data, err := route.fn(ctx, member, clan)
	if err != nil {
		a.internalError(w, err)
		return
	}
	writeOK(w, data)
}

// ========== POST ==========

func (a *apiServer) reportRecord(w http.ResponseWriter, r *http.Request) {
	var req dto.ReportRecordRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()

	member := memberID(r)
	clan, ok := a.clanFor(ctx, w, member, req.ClanGID)
	if !ok {
		return
	}
	target, proxy := member, ""
	if req.IsProxyReport {
		joined, err := a.joined(ctx, req.ProxyReportMember, req.ClanGID)
		if err != nil {
			a.internalError(w, err)
			return
		}
		if !joined {
			writeError(w, http.StatusOK, dto.ErrCodeForbidden, "被代报的成员没有加入该公会")
			return
		}
		target, proxy = req.ProxyReportMember, member
	}

	damage := req.Damage
	if req.IsKillBoss {
		bosses, err := clan.BossStatus(ctx)
		if err != nil {
			a.internalError(w, err)
			return
		}
		damage = ""
		for _, b := range bosses {
			if b.Boss == req.TargetBoss {
				damage = strconv.FormatInt(b.HP, 10)
			}
		}
	}

	out, err := clan.CommitRecord(ctx, service.CommitRecordRequest{
		MemberID:      target,
		Boss:          req.TargetBoss,
		Damage:        damage,
		Comment:       req.Comment,
		ProxyReporter: proxy,
		ForceFull:     req.ForceFullChance,
	})
	if err != nil {
		a.internalError(w, err)
		return
	}
	writeResult(w, out.Result.String(), out)
}

func (a *apiServer) reportQueue(w http.ResponseWriter, r *http.Request) {
	var req dto.ReportQueueRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()

	member := memberID(r)
	clan, ok := a.clanFor(ctx, w, member, req.ClanGID)
	if !ok {
		return
	}
	out, err := clan.CommitInProgress(ctx, member, req.TargetBoss, req.Comment)
	if err != nil {
		a.internalError(w, err)
		return
	}
	writeResult(w, out.Result.String(), out.Holders)
}

func (a *apiServer) reportUnqueue(w http.ResponseWriter, r *http.Request) {
	var req dto.ClanRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()

	member := memberID(r)
	clan, ok := a.clanFor(ctx, w, member, req.ClanGID)
	if !ok {
		return
	}
	removed, err := clan.DeleteInProgress(ctx, member)
	if err != nil {
		a.internalError(w, err)
		return
	}
	writeBool(w, removed, "取消申请失败，请确认您已经在出刀了")
}

func (a *apiServer) reportSubscribe(w http.ResponseWriter, r *http.Request) {
	var req dto.ReportSubscribeRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()

	member := memberID(r)
	clan, ok := a.clanFor(ctx, w, member, req.ClanGID)
	if !ok {
		return
	}
	out, err := clan.CommitSubscribe(ctx, member, req.TargetBoss, req.TargetCycle, req.Comment)
	if err != nil {
		a.internalError(w, err)
		return
	}
	writeResult(w, out.Result.String(), out)
}

func (a *apiServer) reportUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req dto.ReportSubscribeRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()

	member := memberID(r)
	clan, ok := a.clanFor(ctx, w, member, req.ClanGID)
	if !ok {
		return
	}
	removed, err := clan.DeleteSubscribe(ctx, member, req.TargetBoss, req.TargetCycle)
	if err != nil {
		a.internalError(w, err)
		return
	}
	writeBool(w, removed, "取消预约失败，请确认您已经预约该 Boss")
}

func (a *apiServer) reportOnTree(w http.ResponseWriter, r *http.Request) {
	var req dto.ReportOnTreeRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()

	member := memberID(r)
	clan, ok := a.clanFor(ctx, w, member, req.ClanGID)
	if !ok {
		return
	}
	res, err := clan.CommitOnTree(ctx, member, req.Boss, req.Comment)
	if err != nil {
		a.internalError(w, err)
		return
	}
	writeResult(w, res.String(), nil)
}

func (a *apiServer) reportOffTree(w http.ResponseWriter, r *http.Request) {
	var req dto.ClanRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()

	member := memberID(r)
	clan, ok := a.clanFor(ctx, w, member, req.ClanGID)
	if !ok {
		return
	}
	removed, err := clan.DeleteOnTree(ctx, member)
	if err != nil {
		a.internalError(w, err)
		return
	}
	writeBool(w, removed, "您当前不在树上")
}

func (a *apiServer) reportSL(w http.ResponseWriter, r *http.Request) {
	var req dto.ReportSLRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()

	member := memberID(r)
	clan, ok := a.clanFor(ctx, w, member, req.ClanGID)
	if !ok {
		return
	}
	target, proxy := member, ""
	if req.IsProxyReport {
		target, proxy = req.ProxyReportUID, member
	}
	res, err := clan.CommitSL(ctx, target, req.Boss, req.Comment, proxy)
	if err != nil {
		a.internalError(w, err)
		return
	}
	writeResult(w, res.String(), nil)
}

func (a *apiServer) reportUndo(w http.ResponseWriter, r *http.Request) {
	var req dto.ReportUndoRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()

	member := memberID(r)
	clan, ok := a.clanFor(ctx, w, member, req.ClanGID)
	if !ok {
		return
	}
	out, err := clan.UndoRecent(ctx, member, req.RecordID)
	if err != nil {
		a.internalError(w, err)
		return
	}
	if !out.Undone {
		writeError(w, http.StatusOK, dto.ErrCodeForbidden, "撤回失败：没有可撤回的出刀，或之后已有其他人出刀")
		return
	}
	writeOK(w, out)
}

func (a *apiServer) queryRecord(w http.ResponseWriter, r *http.Request) {
	var req dto.QueryRecordRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()

	clan, ok := a.clanFor(ctx, w, memberID(r), req.ClanGID)
	if !ok {
		return
	}
	day, _, _ := strings.Cut(req.Date, "T")
	records, err := clan.Query(ctx, service.RecordQuery{
		MemberID: req.Member,
		Day:      day,
		Boss:     req.Boss,
		Cycle:    req.Cycle,
		Desc:     true,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, dto.ErrCodeBadRequest, err.Error())
		return
	}
	writeOK(w, records)
}

func (a *apiServer) changeArchive(w http.ResponseWriter, r *http.Request) {
	var req dto.SetArchiveRequest
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := a.ctx(r)
	defer cancel()

	member := memberID(r)
	clan, ok := a.clanFor(ctx, w, member, req.ClanGID)
	if !ok {
		return
	}
	res, err := clan.SwitchArchive(ctx, member, req.DataNum)
	if err != nil {
		a.internalError(w, err)
		return
	}
	if res == service.AdminPermissionDenied {
		writeJSON(w, http.StatusOK, dto.Response{ErrCode: dto.ErrCodeNotAdmin, Code: res.String(), Msg: "您不是会战管理员，无权切换会战档案"})
		return
	}
	writeResult(w, res.String(), map[string]int{"data_num": req.DataNum})
}

// ========== health / events ==========

func (a *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	clans, err := a.reg.ListClans(r.Context())
	if err != nil {
		a.internalError(w, err)
		return
	}
	settings := a.reg.Settings()

	app := a.app
	app.StartedAt = a.startTime.Format(time.RFC3339)
	app.UptimeSec = int64(time.Since(a.startTime).Seconds())
	writeJSON(w, http.StatusOK, dto.HealthDTO{
		OK:      !a.storage.SafeMode,
		App:     app,
		Storage: a.storage,
		Engine: dto.EngineStatusDTO{
			Clans:                 len(clans),
			EventSubscribers:      a.hub.SubscriberCount(),
			EventsDropped:         a.hub.Dropped(),
			FullChancesPerDay:     settings.FullChancesPerDay,
			AdditionChancesPerDay: settings.AdditionChancesPerDay,
			MaxCycleLead:          settings.MaxCycleLead,
		},
	})
}

// handleSSE 推送会战事件；带 clan_gid 参数时只推送该公会
func (a *apiServer) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, http.StatusInternalServerError, "stream not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clanGID := r.URL.Query().Get("clan_gid")
	ctx := r.Context()
	sub := a.hub.Subscribe(ctx, clanGID, 32)
	a.metrics.SSEConnected()
	defer a.metrics.SSEDisconnected()

	_, _ = io.WriteString(w, "event: ready\n")
	_, _ = io.WriteString(w, "data: {}\n\n")
	flusher.Flush()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, "event: ping\n")
			_, _ = io.WriteString(w, "data: {}\n\n")
			flusher.Flush()
		case evt, ok := <-sub:
			if !ok {
				return
			}
			b, _ := json.Marshal(evt)
			_, _ = io.WriteString(w, "event: "+sanitizeSSEName(evt.Type)+"\n")
			_, _ = io.WriteString(w, "data: ")
			_, _ = w.Write(b)
			_, _ = io.WriteString(w, "\n\n")
			flusher.Flush()
		}
	}
}

func sanitizeSSEName(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return "message"
	}
	n = strings.ReplaceAll(n, "\n", "")
	n = strings.ReplaceAll(n, "\r", "")
	return n
}
