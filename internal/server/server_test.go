package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	player "choria/internal/player/entity"
	"choria/internal/shared/protocol"
	"choria/internal/shared/security"
	"choria/internal/shared/transport"
	"choria/internal/world/entity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrade_端到端交换(t *testing.T) {
	f := newFixture(t)
	pelt := f.tables.Item(11)
	f.chars.add(1, "alice", func(st *player.State) {
		st.Inventory[player.SlotBackpack] = player.Slot{Item: pelt, Count: 3}
	})
	f.chars.add(2, "bob", nil)

	pa, a := f.enter("alice")
	pb, b := f.enter("bob")
	f.tr.Received(pa)
	f.tr.Received(pb)

	f.deliver(pa, protocol.NewPacket(protocol.OpTradeRequest))
	if a.Player.Status != player.StatusWaitTrade {
		t.Fatalf("期望 alice 进入 WaitTrade，实际 %s", a.Player.Status)
	}
	f.deliver(pb, protocol.NewPacket(protocol.OpTradeRequest))
	reqB := take(f.tr.Received(pb), protocol.OpTradeRequest)
	reqA := take(f.tr.Received(pa), protocol.OpTradeRequest)
	if len(reqA) != 1 || len(reqB) != 1 {
		t.Fatalf("期望双方各收到一个 TRADE_REQUEST，实际 a=%d b=%d", len(reqA), len(reqB))
	}
	if id := reqB[0].ReadUint8(); id != uint8(a.ID) {
		t.Fatalf("bob 的交易对象期望 %d，实际 %d", a.ID, id)
	}
	assert.Equal(t, int32(0), reqB[0].ReadInt32())

	f.deliver(pa, protocol.NewPacket(protocol.OpInventoryMove).
		WriteUint8(player.SlotBackpack).
		WriteUint8(player.SlotTrade))
	items := take(f.tr.Received(pb), protocol.OpTradeItem)
	require.Len(t, items, 1)
	r := items[0]
	assert.Equal(t, int32(0), r.ReadInt32(), "原格已空")
	assert.Equal(t, uint8(player.SlotBackpack), r.ReadUint8())
	assert.Equal(t, int32(11), r.ReadInt32())
	assert.Equal(t, uint8(3), r.ReadUint8())
	assert.Equal(t, uint8(player.SlotTrade), r.ReadUint8())
	require.NoError(t, r.Err())

	f.deliver(pb, protocol.NewPacket(protocol.OpTradeGold).WriteInt32(20))
	golds := take(f.tr.Received(pa), protocol.OpTradeGold)
	require.Len(t, golds, 1)
	assert.Equal(t, int32(20), golds[0].ReadInt32())

	f.deliver(pa, protocol.NewPacket(protocol.OpTradeAccept).WriteUint8(1))
	accepts := take(f.tr.Received(pb), protocol.OpTradeAccept)
	require.Len(t, accepts, 1)
	assert.Equal(t, uint8(1), accepts[0].ReadUint8())

	f.deliver(pb, protocol.NewPacket(protocol.OpTradeAccept).WriteUint8(1))
	// 交换后再确认一次不应该再交换
	f.deliver(pa, protocol.NewPacket(protocol.OpTradeAccept).WriteUint8(1))

	exA := take(f.tr.Received(pa), protocol.OpTradeExchange)
	exB := take(f.tr.Received(pb), protocol.OpTradeExchange)
	if len(exA) != 1 || len(exB) != 1 {
		t.Fatalf("期望各一个 TRADE_EXCHANGE，实际 a=%d b=%d", len(exA), len(exB))
	}
	assert.Equal(t, int32(120), exA[0].ReadInt32())
	assert.Equal(t, int32(80), exB[0].ReadInt32())
	assert.Equal(t, int32(11), exB[0].ReadInt32(), "bob 交易栏第一格是毛皮")

	assert.Equal(t, 120, a.Player.Gold)
	assert.Equal(t, 80, b.Player.Gold)
	assert.Equal(t, player.StatusWalk, a.Player.Status)
	assert.Equal(t, player.StatusWalk, b.Player.Status)
	assert.Equal(t, player.Slot{Item: pelt, Count: 3}, b.Player.Inventory[player.SlotBackpack])
	for i := player.SlotBackpack; i < player.InventoryCount; i++ {
		if a.Player.Inventory[i].Item == pelt {
			t.Fatalf("alice 不应该还有毛皮，格 %d", i)
		}
	}
}

func TestDisconnect_清理顺序(t *testing.T) {
	f := newFixture(t)
	f.chars.add(1, "alice", nil)
	f.chars.add(2, "bob", nil)
	pa, a := f.enter("alice")
	pb, b := f.enter("bob")

	f.deliver(pa, protocol.NewPacket(protocol.OpTradeRequest))
	f.deliver(pb, protocol.NewPacket(protocol.OpTradeRequest))
	require.Equal(t, player.StatusTrade, b.Player.Status)

	// alice 同时挂在一场战斗里
	bt := f.srv.c.Instances.CreateBattle()
	bt.AddMonster(entity.NewMonster(f.tables.Monster(1)), 1)
	bt.AddPlayer(a, 0)
	bt.Start()
	require.Equal(t, 1, f.srv.c.Instances.BattleCount())
	f.tr.Received(pb)

	f.tr.Drop(pa)
	f.tick()

	pkts := f.tr.Received(pb)
	if len(take(pkts, protocol.OpTradeCancel)) != 1 {
		t.Fatalf("期望 bob 收到 TRADE_CANCEL")
	}
	assert.Equal(t, player.StatusWaitTrade, b.Player.Status)
	del := take(pkts, protocol.OpWorldDeleteObject)
	require.Len(t, del, 1)
	assert.Equal(t, uint8(a.ID), del[0].ReadUint8())

	assert.Equal(t, 0, f.srv.c.Instances.BattleCount(), "没人的战斗要删掉")
	assert.Contains(t, f.chars.saved, "alice")
	_, online := f.srv.c.Sessions.Account(pa)
	assert.False(t, online)
	assert.Nil(t, f.entity(pa))
	assert.Equal(t, 1, f.srv.c.Sessions.Online())
}

func TestDispatch_截断包断线(t *testing.T) {
	f := newFixture(t)
	f.chars.add(1, "alice", nil)
	pa, _ := f.enter("alice")

	f.tr.DeliverRaw(pa, []byte{byte(protocol.OpWorldMoveCommand)})
	f.tick()

	if f.tr.Connected(pa) {
		t.Fatalf("期望解码失败后断开连接")
	}
	assert.Contains(t, f.chars.saved, "alice")
	assert.Nil(t, f.entity(pa))
}

func TestDispatch_未登录世界指令忽略(t *testing.T) {
	f := newFixture(t)
	p := f.connect()
	f.deliver(p, protocol.NewPacket(protocol.OpWorldMoveCommand).WriteUint8(uint8(player.MoveRight)))
	f.deliver(p, protocol.NewPacket(protocol.OpTradeAccept).WriteUint8(1))
	assert.True(t, f.tr.Connected(p))
	assert.Empty(t, f.tr.Received(p))
}

func TestDispatch_handler_panic(t *testing.T) {
	f := newFixture(t)
	f.chars.add(1, "alice", nil)
	f.chars.add(2, "bob", nil)
	pa, _ := f.enter("alice")
	pb, _ := f.enter("bob")
	f.srv.handlers[protocol.OpChatMessage] = func(context.Context, *entity.Entity, *protocol.Reader) error {
		panic("boom")
	}

	f.deliver(pa, protocol.NewPacket(protocol.OpChatMessage).WriteString("hi"))

	assert.False(t, f.tr.Connected(pa), "panic 的连接要断开")
	assert.True(t, f.tr.Connected(pb), "其他连接不受影响")
	assert.Contains(t, f.chars.saved, "alice")
	// tick 还能继续
	f.tick()
	assert.NotNil(t, f.entity(pb))
}

func TestRun_stop_同步存档并断开(t *testing.T) {
	f := newFixture(t)
	f.chars.add(1, "alice", nil)
	pa, _ := f.enter("alice")

	done := make(chan error, 1)
	go func() { done <- f.srv.Run(context.Background()) }()
	require.True(t, f.srv.Submit(CommandStop))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("Run 没有在 stop 后返回")
	}
	assert.Equal(t, []string{"alice"}, f.chars.savedNow)
	assert.False(t, f.tr.Connected(pa))
	_, online := f.srv.c.Sessions.Account(pa)
	assert.False(t, online)
}

func TestRun_ctx_取消也走停服(t *testing.T) {
	f := newFixture(t)
	f.chars.add(1, "alice", nil)
	f.enter("alice")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.Run(ctx) }()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run 没有在 ctx 取消后返回")
	}
	assert.Equal(t, []string{"alice"}, f.chars.savedNow)
}

func TestSubmit_队列满(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < commandQueueSize; i++ {
		require.True(t, f.srv.Submit(CommandStop))
	}
	assert.False(t, f.srv.Submit(CommandStop))
	assert.True(t, f.tick())
}

func TestSnapshot_每秒发布(t *testing.T) {
	f := newFixture(t)
	f.chars.add(1, "alice", nil)
	f.enter("alice")

	assert.Equal(t, Snapshot{}, f.srv.Snapshot(), "还没到一秒")
	f.advance(snapshotPeriod)
	assert.Equal(t, Snapshot{Players: 1, Maps: 1}, f.srv.Snapshot())
}

func TestAutoSave(t *testing.T) {
	f := newFixture(t)
	f.chars.add(1, "alice", nil)
	f.enter("alice")
	f.chars.saved = nil

	f.advance(f.srv.c.Config.Persistence.AutoSavePeriod())
	assert.Equal(t, []string{"alice"}, f.chars.saved)
}

func TestRunConsole(t *testing.T) {
	f := newFixture(t)
	f.srv.RunConsole(context.Background(), strings.NewReader("help\n\n  stop  \n"))
	assert.True(t, f.tick(), "stop 指令应该进入队列")
	assert.False(t, f.tick())
}

func TestAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	f := newFixture(t)
	f.chars.add(1, "alice", nil)
	f.enter("alice")
	f.advance(snapshotPeriod)

	engine := gin.New()
	f.srv.RegisterAdmin(engine)
	token, err := security.Award("ops", security.RoleAdmin, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/online", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/online", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.Players)

	other, err := security.Award("someone", "player", time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/admin/stop", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/admin/stop", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, f.tick())
}


// startTrade 两人在复活点先后发起交易，进入 TRADE 后清空收件箱。
func startTrade(t *testing.T, f *fixture, pa, pb transport.PeerID) {
	t.Helper()
	f.deliver(pa, protocol.NewPacket(protocol.OpTradeRequest))
	f.deliver(pb, protocol.NewPacket(protocol.OpTradeRequest))
	a, b := f.entity(pa), f.entity(pb)
	if a.Player.Status != player.StatusTrade || b.Player.Status != player.StatusTrade {
		t.Fatalf("期望双方进入交易，实际 %s/%s", a.Player.Status, b.Player.Status)
	}
	f.tr.Received(pa)
	f.tr.Received(pb)
}

func TestTrade_交易栏里的药不能喝(t *testing.T) {
	f := newFixture(t)
	red := f.tables.Item(3)
	f.chars.add(1, "alice", func(st *player.State) {
		st.Inventory[player.SlotBackpack] = player.Slot{Item: red, Count: 5}
	})
	f.chars.add(2, "bob", nil)
	pa, a := f.enter("alice")
	pb, b := f.enter("bob")
	startTrade(t, f, pa, pb)

	f.deliver(pa, protocol.NewPacket(protocol.OpInventoryMove).
		WriteUint8(player.SlotBackpack).
		WriteUint8(player.SlotTrade))
	f.deliver(pb, protocol.NewPacket(protocol.OpTradeAccept).WriteUint8(1))
	f.tr.Received(pb)
	require.True(t, b.Player.TradeAccepted)

	a.Player.Fighter.Health = 1
	f.deliver(pa, protocol.NewPacket(protocol.OpInventoryUse).WriteUint8(player.SlotTrade))

	assert.Equal(t, 5, a.Player.Inventory[player.SlotTrade].Count, "报价不能被改")
	assert.Equal(t, 1, a.Player.Fighter.Health)
	assert.True(t, b.Player.TradeAccepted)
	assert.Empty(t, take(f.tr.Received(pb), protocol.OpTradeItem))
	assert.Empty(t, take(f.tr.Received(pa), protocol.OpInventoryUse))

	f.deliver(pa, protocol.NewPacket(protocol.OpTradeAccept).WriteUint8(1))
	assert.Equal(t, 5, b.Player.Inventory.CountItem(red), "对方拿到确认时的数量")
}

func TestAttackPlayer_不拉交易中的玩家(t *testing.T) {
	f := newFixture(t)
	f.accounts.users["carol"] = fakeUser{id: 3, password: "pw"}
	f.chars.add(1, "alice", nil)
	f.chars.add(2, "bob", nil)
	f.chars.add(3, "carol", nil)
	pa, a := f.enter("alice")
	pb, b := f.enter("bob")
	pc, c := f.enter("carol")
	startTrade(t, f, pa, pb)
	f.deliver(pa, protocol.NewPacket(protocol.OpTradeAccept).WriteUint8(1))

	a.Position = entity.Position{X: 6, Y: 6}
	b.Position = entity.Position{X: 7, Y: 7}
	c.Position = entity.Position{X: 6, Y: 7}
	f.deliver(pc, protocol.NewPacket(protocol.OpWorldAttackPlayer))
	assert.Equal(t, 0, f.srv.c.Instances.BattleCount())
	assert.Equal(t, player.StatusTrade, a.Player.Status)
	assert.Equal(t, player.StatusTrade, b.Player.Status)
	assert.Equal(t, player.StatusWalk, c.Player.Status)

	f.deliver(pb, protocol.NewPacket(protocol.OpTradeAccept).WriteUint8(1))
	assert.Len(t, take(f.tr.Received(pa), protocol.OpTradeExchange), 1)
	assert.Equal(t, player.StatusWalk, a.Player.Status)
	assert.Equal(t, player.StatusWalk, b.Player.Status)
}

func TestJoinBattle_先结束交易(t *testing.T) {
	f := newFixture(t)
	pelt := f.tables.Item(11)
	f.chars.add(1, "alice", func(st *player.State) {
		st.Inventory[player.SlotBackpack] = player.Slot{Item: pelt, Count: 2}
	})
	f.chars.add(2, "bob", nil)
	pa, a := f.enter("alice")
	pb, b := f.enter("bob")
	startTrade(t, f, pa, pb)
	f.deliver(pa, protocol.NewPacket(protocol.OpInventoryMove).
		WriteUint8(player.SlotBackpack).
		WriteUint8(player.SlotTrade))
	f.tr.Received(pb)

	bt := f.srv.c.Instances.CreateBattle()
	f.srv.joinBattle(bt, a, 0)

	assert.Equal(t, player.StatusWalk, a.Player.Status)
	_, linked := a.Player.TradePartner()
	assert.False(t, linked)
	assert.True(t, a.Player.Inventory[player.SlotTrade].Empty())
	assert.Equal(t, 2, a.Player.Inventory.CountItem(pelt), "交易栏退回背包")
	assert.Equal(t, player.StatusWaitTrade, b.Player.Status)
	assert.Len(t, take(f.tr.Received(pb), protocol.OpTradeCancel), 1)
}
