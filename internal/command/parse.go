package command

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yuqie6/YukiClanBattle/internal/schema"
	"golang.org/x/text/width"
)

// mentionSuffix 结尾的 @成员：兼容 CQ 码与纯文本 @id，占两个捕获组
const mentionSuffix = ` ?(?:\[CQ:at,qq=([0-9]{5,})\]|@(\S+))? ?$`

type rule struct {
	re    *regexp.Regexp
	build func(m []string) Command
}

var rules = []rule{
	{regexp.MustCompile(`^创建([台日国])服公会$`), func(m []string) Command {
		return CreateClan{Variant: variantOf(m[1])}
	}},
	{regexp.MustCompile(`^报刀(整)?([1-5]) ?(\d+[EeKkWwBb千万亿]{0,2})?(?::(.*?))?` + mentionSuffix), func(m []string) Command {
		return CommitRecord{ForceFull: m[1] != "", Boss: atoi(m[2]), Damage: m[3], Comment: m[4], Target: mention(m, 5)}
	}},
	{regexp.MustCompile(`^尾刀(整)?([1-5])(?::(.*?))?` + mentionSuffix), func(m []string) Command {
		return CommitKill{ForceFull: m[1] != "", Boss: atoi(m[2]), Comment: m[3], Target: mention(m, 4)}
	}},
	{regexp.MustCompile(`^(状态|查)([1-5]{0,5})$`), func(m []string) Command {
		bosses := digits(m[2])
		return Status{Detail: len(bosses) > 0, Bosses: bosses}
	}},
	{regexp.MustCompile(`^查刀$`), func([]string) Command { return RecentRecords{} }},
	{regexp.MustCompile(`^申请(?:出刀)?([1-5])(?::(.*?))?$`), func(m []string) Command {
		return Queue{Boss: atoi(m[1]), Comment: m[2]}
	}},
	{regexp.MustCompile(`^取消申请$`), func([]string) Command { return Unqueue{} }},
	{regexp.MustCompile(`^出刀表([1-5]{1,5})?$`), func(m []string) Command {
		return ShowQueue{Bosses: digits(m[1])}
	}},
	{regexp.MustCompile(`^挂树([1-5])(?::(.*?))?` + mentionSuffix), func(m []string) Command {
		return OnTree{Boss: atoi(m[1]), Comment: m[2], Target: mention(m, 3)}
	}},
	{regexp.MustCompile(`^下树$`), func([]string) Command { return OffTree{} }},
	{regexp.MustCompile(`^查树$`), func([]string) Command { return QueryTree{} }},
	{regexp.MustCompile(`^预约([1-5]) ?([0-9]{1,3})?(?::(.*?))?$`), func(m []string) Command {
		return Subscribe{Boss: atoi(m[1]), Cycle: atoi(m[2]), Comment: m[3]}
	}},
	{regexp.MustCompile(`^取消预约([1-5]) ?([0-9]{1,3})?$`), func(m []string) Command {
		return Unsubscribe{Boss: atoi(m[1]), Cycle: atoi(m[2])}
	}},
	{regexp.MustCompile(`^撤[回销]?` + mentionSuffix), func(m []string) Command {
		return Undo{Target: mention(m, 1)}
	}},
	{regexp.MustCompile(`^[sS][lL]\??([1-5])(?::(.*?))?` + mentionSuffix), func(m []string) Command {
		return SL{Boss: atoi(m[1]), Comment: m[2], Target: mention(m, 3)}
	}},
	{regexp.MustCompile(`^查[sS][lL]` + mentionSuffix), func(m []string) Command {
		return QuerySL{Target: mention(m, 1)}
	}},
	{regexp.MustCompile(`^加入公会` + mentionSuffix), func(m []string) Command {
		return JoinClan{Target: mention(m, 1)}
	}},
	{regexp.MustCompile(`^退出公会$`), func([]string) Command { return LeaveClan{} }},
	{regexp.MustCompile(`^刷新会战管理员列表$`), func([]string) Command { return RefreshAdmins{} }},
	{regexp.MustCompile(`^修改昵称 ?(.{1,20}?)` + mentionSuffix), func(m []string) Command {
		return RenameMember{Name: strings.TrimSpace(m[1]), Target: mention(m, 2)}
	}},
	{regexp.MustCompile(`^修改公会名称 ?(.{1,20})$`), func(m []string) Command {
		return RenameClan{Name: strings.TrimSpace(m[1])}
	}},
	{regexp.MustCompile(`^移出公会 ?(?:\[CQ:at,qq=([0-9]{5,})\]|@(\S+)|(\S{1,20}))$`), func(m []string) Command {
		id := mention(m, 1)
		if id == "" {
			id = m[3]
		}
		return RemoveMember{MemberID: id}
	}},
	{regexp.MustCompile(`^切换档案 ?([0-9]{1,3})$`), func(m []string) Command {
		return SwitchArchive{Archive: atoi(m[1])}
	}},
	{regexp.MustCompile(`^设置刀数 ?([1-9]) ([0-9])$`), func(m []string) Command {
		return Settings{FullPerDay: atoi(m[1]), AdditionPerDay: atoi(m[2])}
	}},
	{regexp.MustCompile(`^帮助$`), func([]string) Command { return Help{} }},
}

// Parse 把一条聊天消息解析为命令；不是会战命令时 ok=false。
// 全角字符（数字、冒号、空格）先转为半角。
func Parse(text string) (cmd Command, ok bool) {
	text = strings.TrimSpace(width.Narrow.String(text))
	if text == "" {
		return nil, false
	}
	for _, r := range rules {
		if m := r.re.FindStringSubmatch(text); m != nil {
			return r.build(m), true
		}
	}
	return nil, false
}

func mention(m []string, i int) string {
	if m[i] != "" {
		return m[i]
	}
	return m[i+1]
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// digits "135" -> [1 3 5]，去重并保持顺序
func digits(s string) []int {
	var out []int
	seen := map[rune]bool{}
	for _, r := range s {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, int(r-'0'))
	}
	return out
}

func variantOf(area string) string {
	switch area {
	case "日":
		return schema.VariantJP
	case "台":
		return schema.VariantTW
	default:
		return schema.VariantCN
	}
}
