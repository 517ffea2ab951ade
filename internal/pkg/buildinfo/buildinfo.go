package buildinfo

// Version 在 Release 构建时通过 -ldflags 注入，例如：
// -X github.com/yuqie6/YukiClanBattle/internal/pkg/buildinfo.Version=v0.1.0
var Version = "v0.1.0"

// Commit 在 Release 构建时可选注入 git commit，例如：
// -X github.com/yuqie6/YukiClanBattle/internal/pkg/buildinfo.Commit=abcdef1
var Commit = "unknown"

// String 版本与提交，用于 version 子命令和 /health
func String() string {
	return Version + " (" + Commit + ")"
}
