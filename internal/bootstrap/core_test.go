package bootstrap

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/yuqie6/YukiClanBattle/internal/command"
	"github.com/yuqie6/YukiClanBattle/internal/pkg/config"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(dir, "clanbattle.db")
	cfg.App.LogPath = ""
	cfg.ClanBattle.FullChancesPerDay = 2
	path := filepath.Join(dir, "config.yaml")
	if err := config.WriteFile(path, cfg); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewCore_WiresEngine(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	core, err := NewCore(ctx, writeConfig(t, dir))
	if err != nil {
		t.Fatalf("NewCore: %v", err)
	}
	defer core.Close()

	if core.DB.SafeMode {
		t.Fatalf("unexpected safe mode: %s", core.DB.MigrationError)
	}
	if got := core.Registry.Settings().FullChancesPerDay; got != 2 {
		t.Fatalf("FullChancesPerDay = %d, want 2", got)
	}
	if core.Metrics == nil {
		t.Fatalf("metrics should be enabled by default")
	}

	env := command.Env{ClanID: "g1", SenderID: "owner", GroupAdmins: []string{"owner"}}
	reply, handled, err := core.Executor.Handle(ctx, env, "创建日服公会")
	if err != nil || !handled {
		t.Fatalf("create clan: handled=%v err=%v", handled, err)
	}
	if reply.Code != command.CodeSuccess {
		t.Fatalf("create clan code = %s", reply.Code)
	}
	clans, err := core.Registry.ListClans(ctx)
	if err != nil || len(clans) != 1 {
		t.Fatalf("ListClans = %v, %v", clans, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "clanbattle.db")); err != nil {
		t.Fatalf("db file not created: %v", err)
	}
}

func TestApplyConfig_UpdatesSettings(t *testing.T) {
	dir := t.TempDir()
	core, err := NewCore(context.Background(), writeConfig(t, dir))
	if err != nil {
		t.Fatalf("NewCore: %v", err)
	}
	defer core.Close()

	cfg := *core.Cfg
	cfg.ClanBattle.MaxCycleLead = 2
	cfg.ClanBattle.RecentRecordsDefault = 10
	core.ApplyConfig(&cfg)

	s := core.Registry.Settings()
	if s.MaxCycleLead != 2 || s.RecentRecords != 10 {
		t.Fatalf("settings not applied: %+v", s)
	}
}

func TestStartHTTP_ServesHealth(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core, err := NewCore(ctx, writeConfig(t, dir))
	if err != nil {
		t.Fatalf("NewCore: %v", err)
	}
	defer core.Close()

	srv, err := core.StartHTTP(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("StartHTTP: %v", err)
	}
	defer srv.Shutdown(context.Background())

	status, err := httpGet(srv.BaseURL() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
}

func httpGet(url string) (int, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
