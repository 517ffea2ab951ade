package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yuqie6/YukiClanBattle/internal/command"
	"github.com/yuqie6/YukiClanBattle/internal/service"
)

func clanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clan",
		Short: "公会管理",
	}

	var name, variant, admins string
	create := &cobra.Command{
		Use:   "create <clan_id>",
		Short: "创建公会",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name = args[0]
			}
			res, err := core.Registry.CreateClan(cmd.Context(), args[0], name, variant, splitList(admins))
			if err != nil {
				return err
			}
			return printResult(res.String(), "公会 "+args[0]+" 已创建")
		},
	}
	create.Flags().StringVar(&name, "name", "", "公会名称")
	create.Flags().StringVar(&variant, "variant", "jp", "服务器类型 jp|tw|cn")
	create.Flags().StringVar(&admins, "admins", "", "会战管理员，逗号分隔")

	list := &cobra.Command{
		Use:   "list",
		Short: "列出全部公会",
		RunE: func(cmd *cobra.Command, args []string) error {
			clans, err := core.Registry.ListClans(cmd.Context())
			if err != nil {
				return err
			}
			if len(clans) == 0 {
				fmt.Println("📚 还没有公会")
				return nil
			}
			for _, c := range clans {
				fmt.Printf("  • %s  %s  [%s] 档案 %d  管理员 %s\n", c.ClanID, c.Name, c.Variant, c.CurrentArchive, strings.Join(c.Admins, ","))
			}
			return nil
		},
	}

	var operator string
	archive := &cobra.Command{
		Use:   "switch-archive <clan_id> <archive>",
		Short: "切换会战档案",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clan, err := core.Registry.Clan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var n int
			if _, err := fmt.Sscanf(args[1], "%d", &n); err != nil {
				return fmt.Errorf("档案编号无效: %s", args[1])
			}
			res, err := clan.SwitchArchive(cmd.Context(), operator, n)
			if err != nil {
				return err
			}
			return printResult(res.String(), fmt.Sprintf("已切换到档案 %d", n))
		},
	}
	archive.Flags().StringVar(&operator, "operator", "", "执行操作的管理员 id")
	_ = archive.MarkFlagRequired("operator")

	cmd.AddCommand(create, list, archive)
	return cmd
}

func memberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "成员管理",
	}

	var name string
	add := &cobra.Command{
		Use:   "add <clan_id> <member_id>",
		Short: "加入公会",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clan, err := core.Registry.Clan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ok, err := clan.AddMember(cmd.Context(), args[1], name)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s 已经是其他公会的成员", args[1])
			}
			fmt.Println("✅ 已加入", args[0])
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "昵称")

	remove := &cobra.Command{
		Use:   "remove <clan_id> <member_id>",
		Short: "移出公会",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clan, err := core.Registry.Clan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ok, err := clan.RemoveMember(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s 不是本公会成员", args[1])
			}
			fmt.Println("✅ 已移出", args[1])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list <clan_id>",
		Short: "成员及今日出刀",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clan, err := core.Registry.Clan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			members, err := clan.Members(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range members {
				admin := ""
				if m.IsAdmin {
					admin = " (管理员)"
				}
				fmt.Printf("  • %s %s%s  今日 %d 刀，待用补偿 %d\n", m.MemberID, m.Name, admin, m.Today.Challenges, m.Today.PendingAddition)
			}
			return nil
		},
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}

// reportCmd 直接报刀（运维补录用）
func reportCmd() *cobra.Command {
	var comment, proxy string
	var kill, forceFull bool

	cmd := &cobra.Command{
		Use:   "report <clan_id> <member_id> <boss> [damage]",
		Short: "报刀；--kill 时伤害取当前剩余血量",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			clan, err := core.Registry.Clan(ctx, args[0])
			if err != nil {
				return err
			}
			var boss int
			if _, err := fmt.Sscanf(args[2], "%d", &boss); err != nil {
				return fmt.Errorf("Boss 编号无效: %s", args[2])
			}
			damage := ""
			if len(args) == 4 {
				damage = args[3]
			}
			if kill {
				if damage, err = currentHP(ctx, clan, boss); err != nil {
					return err
				}
			}
			out, err := clan.CommitRecord(ctx, service.CommitRecordRequest{
				MemberID:      args[1],
				Boss:          boss,
				Damage:        damage,
				Comment:       comment,
				ProxyReporter: proxy,
				ForceFull:     forceFull,
			})
			if err != nil {
				return err
			}
			if out.Result != service.CommitRecordSuccess {
				return printResult(out.Result.String(), "")
			}
			fmt.Printf("✅ %s 对 %d 王造成 %d 伤害，今日第 %d 刀\n", args[1], boss, out.Record.Damage, out.ChallengesToday)
			printBoss(out.Boss)
			return nil
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "备注")
	cmd.Flags().StringVar(&proxy, "proxy", "", "代报人 id")
	cmd.Flags().BoolVar(&kill, "kill", false, "尾刀")
	cmd.Flags().BoolVar(&forceFull, "force-full", false, "强制按整刀计")
	return cmd
}

func currentHP(ctx context.Context, clan *service.Clan, boss int) (string, error) {
	bosses, err := clan.BossStatus(ctx)
	if err != nil {
		return "", err
	}
	for _, b := range bosses {
		if b.Boss == boss {
			return fmt.Sprint(b.HP), nil
		}
	}
	return "", nil
}

// chatCmd 以聊天命令的方式执行，便于在终端里调试指令
func chatCmd() *cobra.Command {
	var name string
	var groupAdmin bool

	cmd := &cobra.Command{
		Use:   "chat <clan_id> <sender_id> <message...>",
		Short: "执行一条聊天命令，例如：chat 1001 42 报刀1 500w",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := command.Env{
				ClanID:     args[0],
				SenderID:   args[1],
				SenderName: name,
			}
			if groupAdmin {
				env.GroupAdmins = []string{args[1]}
			}
			reply, handled, err := core.Executor.Handle(cmd.Context(), env, strings.Join(args[2:], " "))
			if err != nil {
				return err
			}
			if !handled {
				return fmt.Errorf("无法识别的命令，发送“帮助”查看用法")
			}
			fmt.Printf("[%s] %s\n%s\n", reply.Op, reply.Code, reply.Text)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "发送者昵称")
	cmd.Flags().BoolVar(&groupAdmin, "group-admin", false, "发送者是群管理员")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <clan_id>",
		Short: "Boss 状态与今日出刀汇总",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			clan, err := core.Registry.Clan(ctx, args[0])
			if err != nil {
				return err
			}
			archive, err := clan.CurrentArchive(ctx)
			if err != nil {
				return err
			}
			bosses, err := clan.BossStatus(ctx)
			if err != nil {
				return err
			}
			total, err := clan.TodayStatusTotal(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("📊 公会 %s 档案 %d\n", args[0], archive)
			fmt.Println("═══════════════════════════════════════")
			for _, b := range bosses {
				printBoss(b)
			}
			fmt.Printf("\n今日已出 %d 刀，剩余补偿刀 %d\n", total.TotalChallenges, total.RemainingAdditionQuota)
			return nil
		},
	}
}

func queryCmd() *cobra.Command {
	var day, member string
	var boss, cycle, limit int

	cmd := &cobra.Command{
		Use:   "query <clan_id>",
		Short: "查询出刀记录",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clan, err := core.Registry.Clan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			records, err := clan.Query(cmd.Context(), service.RecordQuery{
				MemberID: member,
				Day:      day,
				Boss:     boss,
				Cycle:    cycle,
				Desc:     true,
				Limit:    limit,
			})
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("📚 没有符合条件的记录")
				return nil
			}
			for _, r := range records {
				flags := ""
				if r.IsKill {
					flags += " 击破"
				}
				if r.IsAddition {
					flags += " 补偿"
				}
				if r.IsProxy {
					flags += " 代报:" + r.ProxyReporter
				}
				at := time.UnixMilli(r.Timestamp).Format("01-02 15:04")
				fmt.Printf("  #%d %s %s %d周目%d王 %d%s %s\n", r.ID, at, r.MemberID, r.Cycle, r.Boss, r.Damage, flags, r.Comment)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "会战日 YYYY-MM-DD")
	cmd.Flags().StringVar(&member, "member", "", "成员 id")
	cmd.Flags().IntVar(&boss, "boss", 0, "Boss 编号")
	cmd.Flags().IntVar(&cycle, "cycle", 0, "周目")
	cmd.Flags().IntVar(&limit, "limit", 50, "最多条数")
	return cmd
}

func printBoss(b service.BossView) {
	fmt.Printf("  %d 王  %d 周目  %d / %d  (阶段 %d)\n", b.Boss, b.Cycle, b.HP, b.MaxHP, b.Stage)
}

// printResult 引擎结果码：success 打印提示，其余转为错误
func printResult(code, okText string) error {
	if code != "success" {
		return fmt.Errorf("%s: %s", code, service.ResultMessage(code))
	}
	if okText != "" {
		fmt.Println("✅", okText)
	}
	return nil
}
