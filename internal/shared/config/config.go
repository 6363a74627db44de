package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Resolve 找配置文件：
// 1) 绝对路径直接用；
// 2) 相对路径从当前目录开始逐级向上找，方便在 cmd/ 或包目录里跑测试。
func Resolve(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		if !fileExist(rel) {
			return "", fmt.Errorf("config file not exist: %s", rel)
		}
		return rel, nil
	}
	start, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for dir := start; ; {
		candidate := filepath.Join(dir, rel)
		if fileExist(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("config file not exist, searched %s upward from %s", rel, start)
		}
		dir = parent
	}
}

func fileExist(fileName string) bool {
	_, err := os.Stat(fileName)
	return err == nil
}
