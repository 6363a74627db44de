package server

import (
	"errors"

	"choria/internal/shared/gameconfig"
	"choria/internal/shared/serverconfig"
	"choria/internal/shared/session"
	"choria/internal/shared/transport"
	"choria/internal/world/entity"
	"choria/internal/world/fighter"
	"choria/internal/world/instance"
	"choria/internal/world/registry"
	"choria/internal/world/trade"
	"choria/modules/kit/logx"
)

// Context 一个服务进程的全部运行时依赖，只在 tick 协程上使用。
type Context struct {
	Config     serverconfig.Config
	Tables     *gameconfig.Tables
	Registry   *registry.Registry[*entity.Entity]
	Instances  *instance.Manager
	Trades     *trade.Service
	Transport  transport.Transport
	Sessions   *session.Manager
	Accounts   AccountService
	Characters CharacterService
	Rand       fighter.Rand
	Log        logx.Logger
}

type Options struct {
	Config     serverconfig.Config
	Tables     *gameconfig.Tables
	Transport  transport.Transport
	Sessions   *session.Manager
	Accounts   AccountService
	Characters CharacterService
	// Loader 为空时从 Content.MapDir 读地图文件
	Loader instance.Loader
	// Rand 为空时按 Server.Seed 建
	Rand fighter.Rand
	Log  logx.Logger
}

// NewContext 组装注册表、实例管理和交易服务。
// 注册表的删除回调要用到 Instances，所以先建注册表再回填。
func NewContext(o Options) (*Context, error) {
	if o.Tables == nil || o.Transport == nil || o.Accounts == nil || o.Characters == nil {
		return nil, errors.New("server: tables, transport, accounts and characters are required")
	}
	if o.Log == nil {
		o.Log = logx.Nop()
	}
	if o.Sessions == nil {
		o.Sessions = session.NewManager(nil)
	}
	if o.Rand == nil {
		o.Rand = fighter.NewRand(o.Config.Server.Seed)
	}
	if o.Loader == nil {
		o.Loader = instance.FileLoader(o.Tables, o.Config.Content.MapDir)
	}
	c := &Context{
		Config:     o.Config,
		Tables:     o.Tables,
		Transport:  o.Transport,
		Sessions:   o.Sessions,
		Accounts:   o.Accounts,
		Characters: o.Characters,
		Rand:       o.Rand,
		Log:        o.Log,
	}
	c.Registry = registry.New(o.Config.Server.MaxObjects, c.objectDeleted)
	c.Instances = instance.NewManager(instance.Deps{
		Tables:  o.Tables,
		Players: c.Registry,
		Sender:  o.Transport,
		Rand:    o.Rand,
		Loader:  o.Loader,
	})
	c.Trades = trade.NewService(c.Registry, c.Instances, o.Transport)
	return c, nil
}

// objectDeleted 注册表释放 id 前调用：从所在地图移除并广播。
func (c *Context) objectDeleted(e *entity.Entity) {
	if e.MapID == 0 {
		return
	}
	if m, err := c.Instances.GetMap(e.MapID); err == nil {
		m.RemoveObject(e)
	}
}
