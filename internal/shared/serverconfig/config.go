package serverconfig

import (
	"os"

	"github.com/spf13/viper"

	"choria/internal/shared/config"
)

const (
	defaultConfigRelPath = "configs/conf.yml"
	envConfigPath        = "CHORIA_CONFIG"
)

var Conf Config

// Load 读取 configs/conf.yml；path 非空或设置了 CHORIA_CONFIG 时以它为准。
// 返回 Watcher，调用方可以挂热更新回调（目前只有日志级别允许热更）。
func Load(path string) (*config.Watcher, error) {
	if path == "" {
		path = os.Getenv(envConfigPath)
	}
	if path == "" {
		path = defaultConfigRelPath
	}
	resolved, err := config.Resolve(path)
	if err != nil {
		return nil, err
	}
	Conf = Defaults()
	w, err := config.Watch(resolved, &Conf)
	if err != nil {
		return nil, err
	}
	// 环境变量优先；未设置时回填配置里的 jwt_secret
	if os.Getenv("JWT_SECRET") == "" && Conf.JWTSecret != "" {
		_ = os.Setenv("JWT_SECRET", Conf.JWTSecret)
	}
	return w, nil
}

// Defaults 配置文件里没写的字段用这些值。
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       31235,
			Path:       "/ws",
			Version:    "0.9.0",
			TickMS:     50,
			MaxObjects: 255,
			SaveCount:  6,
		},
		HTTPServer:  HTTPServerConfig{Host: "127.0.0.1", Port: 31236},
		Persistence: PersistenceConfig{Driver: DriverMySQL, AutoSaveS: 60},
		Content:     ContentConfig{GameConfigDir: "configs/gameconfig", MapDir: "configs/maps"},
		Log:         LogConfig{Level: "info"},
	}
}

// LogLevelFrom 热更新时只取日志级别。
func LogLevelFrom(v *viper.Viper) string {
	return v.GetString("log.level")
}
