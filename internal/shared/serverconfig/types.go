package serverconfig

import "time"

type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	HTTPServer  HTTPServerConfig  `yaml:"httpserver" mapstructure:"httpserver"`
	MySQL       MySQLConfig       `yaml:"mysql" mapstructure:"mysql"`
	MongoDB     MongoDBConfig     `yaml:"mongodb" mapstructure:"mongodb"`
	Redis       RedisConfig       `yaml:"redis" mapstructure:"redis"`
	Persistence PersistenceConfig `yaml:"persistence" mapstructure:"persistence"`
	Content     ContentConfig     `yaml:"content" mapstructure:"content"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	JWTSecret   string            `yaml:"jwt_secret" mapstructure:"jwt_secret"`
}

// ServerConfig 游戏服本身。
type ServerConfig struct {
	Host       string `yaml:"host" mapstructure:"host"`
	Port       int    `yaml:"port" mapstructure:"port"`
	Path       string `yaml:"path" mapstructure:"path"`
	Version    string `yaml:"version" mapstructure:"version"`
	TickMS     int    `yaml:"tick_ms" mapstructure:"tick_ms"`
	MaxObjects int    `yaml:"max_objects" mapstructure:"max_objects"`
	SaveCount  int    `yaml:"save_count" mapstructure:"save_count"`
	// Seed 为 0 时按启动时间取随机种子
	Seed uint64 `yaml:"seed" mapstructure:"seed"`
}

type HTTPServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

type MySQLConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	DBName   string `yaml:"dbname" mapstructure:"dbname"`
	Charset  string `yaml:"charset" mapstructure:"charset"`
	MaxIdle  int    `yaml:"max_idle" mapstructure:"max_idle"`
	MaxConn  int    `yaml:"max_conn" mapstructure:"max_conn"`
}

type MongoDBConfig struct {
	URI             string `yaml:"uri" mapstructure:"uri"`
	Database        string `yaml:"database" mapstructure:"database"`
	ConnectTimeoutS int    `yaml:"connect_timeout_s" mapstructure:"connect_timeout_s"`
}

type RedisConfig struct {
	Addr        string        `yaml:"addr" mapstructure:"addr"`
	Password    string        `yaml:"password" mapstructure:"password"`
	DB          int           `yaml:"db" mapstructure:"db"`
	PresenceTTL time.Duration `yaml:"presence_ttl" mapstructure:"presence_ttl"`
}

const (
	DriverMySQL   = "mysql"
	DriverMongoDB = "mongodb"
)

// PersistenceConfig 角色存档走哪个存储。账号永远在 MySQL。
type PersistenceConfig struct {
	Driver    string `yaml:"driver" mapstructure:"driver"`
	AutoSaveS int    `yaml:"autosave_s" mapstructure:"autosave_s"`
}

type ContentConfig struct {
	GameConfigDir string `yaml:"gameconfig_dir" mapstructure:"gameconfig_dir"`
	MapDir        string `yaml:"map_dir" mapstructure:"map_dir"`
}

type LogConfig struct {
	FileDir    string `yaml:"file_dir" mapstructure:"file_dir"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Level      string `yaml:"level" mapstructure:"level"`
	Dev        bool   `yaml:"dev" mapstructure:"dev"`
}

func (c ServerConfig) Tick() time.Duration {
	if c.TickMS <= 0 {
		return 50 * time.Millisecond
	}
	return time.Duration(c.TickMS) * time.Millisecond
}

func (c PersistenceConfig) AutoSavePeriod() time.Duration {
	if c.AutoSaveS <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.AutoSaveS) * time.Second
}
