package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sample struct {
	Name  string        `mapstructure:"name"`
	Tick  time.Duration `mapstructure:"tick"`
	Ports []int         `mapstructure:"ports"`
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("写文件失败: %v", err)
	}
	return p
}

func TestLoad_YAML(t *testing.T) {
	p := writeFile(t, "conf.yml", "name: choria\ntick: 50ms\nports: [1, 2]\n")
	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("期望加载成功, err=%v", err)
	}
	if s.Name != "choria" || s.Tick != 50*time.Millisecond || len(s.Ports) != 2 {
		t.Fatalf("解码结果不对: %+v", s)
	}
}

func TestLoad_JSON(t *testing.T) {
	p := writeFile(t, "items.json", `{"name":"sword","tick":"1s"}`)
	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("期望加载成功, err=%v", err)
	}
	if s.Name != "sword" || s.Tick != time.Second {
		t.Fatalf("解码结果不对: %+v", s)
	}
}

func TestLoad_文件不存在(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "missing.yml"), &s); err == nil {
		t.Fatalf("期望返回错误")
	}
}

func TestResolve_向上查找(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "configs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "configs", "conf.yml"), []byte("name: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	deep := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(deep)

	got, err := Resolve("configs/conf.yml")
	if err != nil {
		t.Fatalf("期望找到配置, err=%v", err)
	}
	if filepath.Base(filepath.Dir(got)) != "configs" {
		t.Fatalf("路径不对: %s", got)
	}
}
