package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/yuqie6/YukiClanBattle/internal/service"
)

// 执行层自身的结果码；引擎结果码直接透传
const (
	CodeSuccess          = "success"
	CodeClanNotFound     = "clan_not_found"
	CodePermissionDenied = "permission_denied"
	CodeFailed           = "failed"
)

// Env 一条消息的上下文：所在群即公会，发送者即成员
type Env struct {
	ClanID      string
	ClanName    string
	SenderID    string
	SenderName  string
	GroupAdmins []string
}

func (e Env) isGroupAdmin() bool {
	return slices.Contains(e.GroupAdmins, e.SenderID)
}

// Reply 命令执行结果；Text 供聊天回复，Data 供结构化调用方
type Reply struct {
	Op   Op     `json:"op"`
	Code string `json:"code"`
	Data any    `json:"data,omitempty"`
	Text string `json:"text"`
}

// Executor 把解析后的命令映射到引擎操作
type Executor struct {
	reg *service.Registry
}

func NewExecutor(reg *service.Registry) *Executor {
	return &Executor{reg: reg}
}

// Handle 解析并执行一条消息；不是命令时 handled=false
func (e *Executor) Handle(ctx context.Context, env Env, text string) (reply Reply, handled bool, err error) {
	cmd, ok := Parse(text)
	if !ok {
		return Reply{}, false, nil
	}
	reply, err = e.Execute(ctx, env, cmd)
	return reply, true, err
}

// Execute 执行命令。业务失败体现在 Reply.Code 中，error 只表示存储等内部错误。
func (e *Executor) Execute(ctx context.Context, env Env, cmd Command) (Reply, error) {
	if c, ok := cmd.(CreateClan); ok {
		return e.createClan(ctx, env, c)
	}
	if _, ok := cmd.(Help); ok {
		return Reply{Op: OpHelp, Code: CodeSuccess, Text: helpText}, nil
	}

	clan, err := e.reg.Clan(ctx, env.ClanID)
	if errors.Is(err, service.ErrClanNotFound) {
		return Reply{Op: cmd.Op(), Code: CodeClanNotFound, Text: "本群还没有创建公会"}, nil
	}
	if err != nil {
		return Reply{}, err
	}

	reply, err := e.dispatch(ctx, env, clan, cmd)
	if err != nil {
		slog.Error("执行命令失败", "op", cmd.Op(), "clan_id", env.ClanID, "sender", env.SenderID, "error", err)
		return Reply{}, err
	}
	reply.Op = cmd.Op()
	return reply, nil
}

func (e *Executor) dispatch(ctx context.Context, env Env, clan *service.Clan, cmd Command) (Reply, error) {
	switch c := cmd.(type) {
	case CommitRecord:
		return e.commitRecord(ctx, env, clan, c.Boss, c.Damage, c.Comment, c.Target, c.ForceFull)
	case CommitKill:
		bosses, err := clan.BossStatus(ctx)
		if err != nil {
			return Reply{}, err
		}
		damage := ""
		for _, b := range bosses {
			if b.Boss == c.Boss {
				damage = strconv.FormatInt(b.HP, 10)
			}
		}
		return e.commitRecord(ctx, env, clan, c.Boss, damage, c.Comment, c.Target, c.ForceFull)
	case Status:
		return e.status(ctx, clan, c)
	case RecentRecords:
		records, member, err := clan.RecentRecords(ctx, env.SenderID, 0)
		if err != nil {
			return Reply{}, err
		}
		if !member {
			return resultReply("member_not_in_clan", nil, ""), nil
		}
		return Reply{Code: CodeSuccess, Data: records, Text: formatRecords(records)}, nil
	case Queue:
		out, err := clan.CommitInProgress(ctx, env.SenderID, c.Boss, c.Comment)
		if err != nil {
			return Reply{}, err
		}
		text := fmt.Sprintf("已申请出刀 %d 王", c.Boss)
		if len(out.Holders) > 0 {
			text += fmt.Sprintf("，当前还有 %d 人在出刀", len(out.Holders))
		}
		return resultReply(out.Result.String(), out, text), nil
	case Unqueue:
		ok, err := clan.DeleteInProgress(ctx, env.SenderID)
		return boolReply(ok, err, "已取消申请", "没有可取消的申请")
	case ShowQueue:
		return e.showQueue(ctx, clan, c.Bosses)
	case OnTree:
		member, denied, err := e.target(ctx, env, clan, c.Target)
		if err != nil || denied {
			return deniedReply(err)
		}
		res, err := clan.CommitOnTree(ctx, member, c.Boss, c.Comment)
		if err != nil {
			return Reply{}, err
		}
		return resultReply(res.String(), nil, fmt.Sprintf("已挂树 %d 王", c.Boss)), nil
	case OffTree:
		ok, err := clan.DeleteOnTree(ctx, env.SenderID)
		return boolReply(ok, err, "已下树", "当前不在树上")
	case QueryTree:
		holds, err := clan.OnTree(ctx, 0)
		if err != nil {
			return Reply{}, err
		}
		lines := make([]string, 0, len(holds)+1)
		lines = append(lines, fmt.Sprintf("树上共 %d 人", len(holds)))
		for _, h := range holds {
			lines = append(lines, fmt.Sprintf("%d 王 %s %s", h.Boss, h.MemberID, h.Comment))
		}
		return Reply{Code: CodeSuccess, Data: holds, Text: strings.Join(lines, "\n")}, nil
	case Subscribe:
		out, err := clan.CommitSubscribe(ctx, env.SenderID, c.Boss, c.Cycle, c.Comment)
		if err != nil {
			return Reply{}, err
		}
		return resultReply(out.Result.String(), out, fmt.Sprintf("已预约 %d 周目 %d 王", out.Cycle, c.Boss)), nil
	case Unsubscribe:
		ok, err := clan.DeleteSubscribe(ctx, env.SenderID, c.Boss, c.Cycle)
		return boolReply(ok, err, "已取消预约", "没有对应的预约")
	case Undo:
		member, denied, err := e.target(ctx, env, clan, c.Target)
		if err != nil || denied {
			return deniedReply(err)
		}
		out, err := clan.UndoRecent(ctx, member, 0)
		if err != nil {
			return Reply{}, err
		}
		if !out.Undone {
			return Reply{Code: CodeFailed, Text: "没有可撤回的出刀，或该刀之后已有其他人出刀"}, nil
		}
		return Reply{Code: CodeSuccess, Data: out, Text: fmt.Sprintf("已撤回 %d 王 %d 伤害，当前 %s", out.Record.Boss, out.Record.Damage, formatBoss(out.Boss))}, nil
	case SL:
		member, denied, err := e.target(ctx, env, clan, c.Target)
		if err != nil || denied {
			return deniedReply(err)
		}
		proxy := ""
		if member != env.SenderID {
			proxy = env.SenderID
		}
		res, err := clan.CommitSL(ctx, member, c.Boss, c.Comment, proxy)
		if err != nil {
			return Reply{}, err
		}
		return resultReply(res.String(), nil, "SL 已记录"), nil
	case QuerySL:
		member := env.SenderID
		if c.Target != "" {
			member = c.Target
		}
		st, err := clan.TodaySL(ctx, member)
		if err != nil {
			return Reply{}, err
		}
		text := "今日未使用 SL"
		if st.Used {
			text = fmt.Sprintf("今日已在 %d 王使用 SL", st.Boss)
		}
		return Reply{Code: CodeSuccess, Data: st, Text: text}, nil
	case JoinClan:
		member, name := env.SenderID, env.SenderName
		if c.Target != "" && c.Target != env.SenderID {
			if ok, err := e.isAdmin(ctx, env, clan); err != nil || !ok {
				return deniedReply(err)
			}
			member, name = c.Target, c.Target
		}
		ok, err := clan.AddMember(ctx, member, name)
		return boolReply(ok, err, "已加入公会", "已经是其他公会的成员")
	case LeaveClan:
		ok, err := clan.RemoveMember(ctx, env.SenderID)
		return boolReply(ok, err, "已退出公会", "不是本公会成员")
	case RefreshAdmins:
		if !env.isGroupAdmin() {
			return deniedReply(nil)
		}
		if err := clan.RefreshAdmins(ctx, env.GroupAdmins); err != nil {
			return Reply{}, err
		}
		return Reply{Code: CodeSuccess, Text: fmt.Sprintf("管理员列表已刷新，共 %d 人", len(env.GroupAdmins))}, nil
	case RenameMember:
		member, denied, err := e.target(ctx, env, clan, c.Target)
		if err != nil || denied {
			return deniedReply(err)
		}
		ok, err := clan.RenameMember(ctx, member, c.Name)
		return boolReply(ok, err, "昵称已修改为 "+c.Name, "不是本公会成员")
	case RenameClan:
		if ok, err := e.isAdmin(ctx, env, clan); err != nil || !ok {
			return deniedReply(err)
		}
		if err := clan.RenameClan(ctx, c.Name); err != nil {
			return Reply{}, err
		}
		return Reply{Code: CodeSuccess, Text: "公会名称已修改为 " + c.Name}, nil
	case RemoveMember:
		if ok, err := e.isAdmin(ctx, env, clan); err != nil || !ok {
			return deniedReply(err)
		}
		ok, err := clan.RemoveMember(ctx, c.MemberID)
		return boolReply(ok, err, "已移出 "+c.MemberID, "不是本公会成员")
	case SwitchArchive:
		res, err := clan.SwitchArchive(ctx, env.SenderID, c.Archive)
		if err != nil {
			return Reply{}, err
		}
		return resultReply(res.String(), nil, fmt.Sprintf("已切换到档案 %d", c.Archive)), nil
	case Settings:
		res, err := clan.UpdateSettings(ctx, env.SenderID, c.FullPerDay, c.AdditionPerDay)
		if err != nil {
			return Reply{}, err
		}
		return resultReply(res.String(), nil, fmt.Sprintf("每日整刀 %d、补偿刀 %d", c.FullPerDay, c.AdditionPerDay)), nil
	}
	return Reply{}, fmt.Errorf("未知命令: %s", cmd.Op())
}

func (e *Executor) createClan(ctx context.Context, env Env, c CreateClan) (Reply, error) {
	if !env.isGroupAdmin() {
		return Reply{Op: OpCreateClan, Code: CodePermissionDenied, Text: "只有群管理员可以创建公会"}, nil
	}
	name := env.ClanName
	if name == "" {
		name = env.ClanID
	}
	res, err := e.reg.CreateClan(ctx, env.ClanID, name, c.Variant, env.GroupAdmins)
	if err != nil {
		return Reply{}, err
	}
	reply := resultReply(res.String(), nil, "公会已创建")
	reply.Op = OpCreateClan
	return reply, nil
}

func (e *Executor) commitRecord(ctx context.Context, env Env, clan *service.Clan, boss int, damage, comment, target string, forceFull bool) (Reply, error) {
	member := env.SenderID
	proxy := ""
	if target != "" && target != env.SenderID {
		member, proxy = target, env.SenderID
	}
	out, err := clan.CommitRecord(ctx, service.CommitRecordRequest{
		MemberID:      member,
		Boss:          boss,
		Damage:        damage,
		Comment:       comment,
		ProxyReporter: proxy,
		ForceFull:     forceFull,
	})
	if err != nil {
		return Reply{}, err
	}
	if out.Result != service.CommitRecordSuccess {
		return Reply{Code: out.Result.String(), Text: service.ResultMessage(out.Result.String())}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s 对 %d 王造成 %d 伤害", member, boss, out.Record.Damage)
	if out.Record.IsKill {
		b.WriteString("并击破")
	}
	if out.IsAddition {
		b.WriteString("（补偿刀）")
	}
	fmt.Fprintf(&b, "\n今日第 %d 刀，当前 %s", out.ChallengesToday, formatBoss(out.Boss))
	if out.GrantedAddition {
		b.WriteString("\n获得一次补偿刀")
	}
	if out.Record.IsKill && len(out.Subscribers) > 0 {
		ids := make([]string, 0, len(out.Subscribers))
		for _, s := range out.Subscribers {
			ids = append(ids, s.MemberID)
		}
		fmt.Fprintf(&b, "\n预约提醒：%s", strings.Join(ids, " "))
	}
	if out.Record.IsKill && len(out.OnTree) > 0 {
		ids := make([]string, 0, len(out.OnTree))
		for _, h := range out.OnTree {
			ids = append(ids, h.MemberID)
		}
		fmt.Fprintf(&b, "\n可以下树了：%s", strings.Join(ids, " "))
	}
	return Reply{Code: CodeSuccess, Data: out, Text: b.String()}, nil
}

func (e *Executor) status(ctx context.Context, clan *service.Clan, c Status) (Reply, error) {
	bosses, err := clan.BossStatus(ctx)
	if err != nil {
		return Reply{}, err
	}
	if !c.Detail {
		total, err := clan.TodayStatusTotal(ctx)
		if err != nil {
			return Reply{}, err
		}
		lines := make([]string, 0, len(bosses)+1)
		for _, b := range bosses {
			lines = append(lines, formatBoss(b))
		}
		lines = append(lines, fmt.Sprintf("今日已出 %d 刀，剩余补偿刀 %d", total.TotalChallenges, total.RemainingAdditionQuota))
		return Reply{Code: CodeSuccess, Data: map[string]any{"bosses": bosses, "today": total}, Text: strings.Join(lines, "\n")}, nil
	}

	type detail struct {
		Boss       service.BossView `json:"boss"`
		InProgress int              `json:"in_progress"`
		OnTree     int              `json:"on_tree"`
	}
	var details []detail
	var lines []string
	for _, want := range c.Bosses {
		for _, b := range bosses {
			if b.Boss != want {
				continue
			}
			queue, err := clan.InProgress(ctx, want)
			if err != nil {
				return Reply{}, err
			}
			tree, err := clan.OnTree(ctx, want)
			if err != nil {
				return Reply{}, err
			}
			details = append(details, detail{Boss: b, InProgress: len(queue), OnTree: len(tree)})
			lines = append(lines, fmt.Sprintf("%s，出刀中 %d 人，树上 %d 人", formatBoss(b), len(queue), len(tree)))
		}
	}
	return Reply{Code: CodeSuccess, Data: details, Text: strings.Join(lines, "\n")}, nil
}

func (e *Executor) showQueue(ctx context.Context, clan *service.Clan, bosses []int) (Reply, error) {
	if len(bosses) == 0 {
		bosses = []int{0}
	}
	var lines []string
	data := map[int]any{}
	for _, boss := range bosses {
		slots, err := clan.InProgress(ctx, boss)
		if err != nil {
			return Reply{}, err
		}
		data[boss] = slots
		for _, s := range slots {
			lines = append(lines, fmt.Sprintf("%d 王 %s %s", s.Boss, s.MemberID, s.Comment))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "当前没有人在出刀")
	}
	return Reply{Code: CodeSuccess, Data: data, Text: strings.Join(lines, "\n")}, nil
}

// target 解析操作对象；代他人挂树、撤回、SL、改名需要管理员权限
func (e *Executor) target(ctx context.Context, env Env, clan *service.Clan, target string) (member string, denied bool, err error) {
	if target == "" || target == env.SenderID {
		return env.SenderID, false, nil
	}
	ok, err := e.isAdmin(ctx, env, clan)
	if err != nil {
		return "", false, err
	}
	return target, !ok, nil
}

func (e *Executor) isAdmin(ctx context.Context, env Env, clan *service.Clan) (bool, error) {
	if env.isGroupAdmin() {
		return true, nil
	}
	return clan.IsAdmin(ctx, env.SenderID)
}

func deniedReply(err error) (Reply, error) {
	if err != nil {
		return Reply{}, err
	}
	return Reply{Code: CodePermissionDenied, Text: "需要会战管理员权限"}, nil
}

func boolReply(ok bool, err error, okText, failText string) (Reply, error) {
	if err != nil {
		return Reply{}, err
	}
	if !ok {
		return Reply{Code: CodeFailed, Text: failText}, nil
	}
	return Reply{Code: CodeSuccess, Text: okText}, nil
}

func resultReply(code string, data any, okText string) Reply {
	if code != CodeSuccess {
		return Reply{Code: code, Text: service.ResultMessage(code)}
	}
	return Reply{Code: code, Data: data, Text: okText}
}

func formatBoss(b service.BossView) string {
	return fmt.Sprintf("%d 周目 %d 王 %d/%d", b.Cycle, b.Boss, b.HP, b.MaxHP)
}

func formatRecords(records []service.RecordView) string {
	if len(records) == 0 {
		return "没有出刀记录"
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		line := fmt.Sprintf("#%d %d 周目 %d 王 %d", r.ID, r.Cycle, r.Boss, r.Damage)
		if r.IsKill {
			line += " 击破"
		}
		if r.IsAddition {
			line += " 补偿"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

const helpText = `创建[日台国]服公会 加入公会 退出公会
报刀1 500w[:备注] 尾刀1 撤回 查刀
申请1 取消申请 出刀表
挂树1 下树 查树
预约1[ 周目] 取消预约1
sl1 查sl
状态 查1
切换档案 2 设置刀数 3 3 刷新会战管理员列表`
