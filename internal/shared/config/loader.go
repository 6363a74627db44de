package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Load 按扩展名（yml/yaml/json）读取配置并解码到 out。
func Load(path string, out any) error {
	_, err := read(path, out)
	return err
}

// Watcher 持有 viper 实例，文件变更时重新解码后回调。
type Watcher struct {
	v        *viper.Viper
	mu       sync.Mutex
	onChange []func(*viper.Viper)
}

// Watch 读取一次，然后监听文件。
// 回调跑在 fsnotify 的 goroutine 上，只能做线程安全的事（例如改日志级别）。
func Watch(path string, out any) (*Watcher, error) {
	v, err := read(path, out)
	if err != nil {
		return nil, err
	}
	w := &Watcher{v: v}
	v.OnConfigChange(func(e fsnotify.Event) {
		w.mu.Lock()
		fns := append([]func(*viper.Viper){}, w.onChange...)
		w.mu.Unlock()
		for _, fn := range fns {
			fn(v)
		}
	})
	v.WatchConfig()
	return w, nil
}

// OnChange 注册变更回调。
func (w *Watcher) OnChange(fn func(*viper.Viper)) {
	w.mu.Lock()
	w.onChange = append(w.onChange, fn)
	w.mu.Unlock()
}

func read(path string, out any) (*viper.Viper, error) {
	if !fileExist(path) {
		return nil, fmt.Errorf("config file not exist, configPath=%v", path)
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(out, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	return v, nil
}

func decodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}
