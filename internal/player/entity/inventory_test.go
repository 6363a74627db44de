package entity

import "testing"

func TestAddItem_自动找格子(t *testing.T) {
	tb := testTables()
	var inv Inventory
	red := tb.Item(3)
	if !inv.AddItem(red, 200, NoSlot) {
		t.Fatalf("空背包应能放下")
	}
	if !inv.AddItem(red, 50, NoSlot) {
		t.Fatalf("同类堆有空间时应合并")
	}
	if inv[SlotBackpack].Count != 250 {
		t.Fatalf("期望第一格 250，实际 %d", inv[SlotBackpack].Count)
	}
	if !inv.AddItem(red, 10, NoSlot) {
		t.Fatalf("堆满时应放到下一个空格")
	}
	if inv[SlotBackpack].Count != 250 || inv[SlotBackpack+1].Count != 10 {
		t.Fatalf("溢出不能拆到两格，实际 %d / %d", inv[SlotBackpack].Count, inv[SlotBackpack+1].Count)
	}
}

func TestAddItem_背包满时不丢东西(t *testing.T) {
	tb := testTables()
	var inv Inventory
	for i := SlotBackpack; i < SlotTrade; i++ {
		inv[i] = Slot{Item: tb.Item(11), Count: MaxStack}
	}
	if inv.AddItem(tb.Item(3), 1, NoSlot) {
		t.Fatalf("背包满应返回 false")
	}
	if !inv[SlotTrade].Empty() {
		t.Fatalf("自动放置不能落到交易栏")
	}
}

func TestAddItem_装备格类型校验(t *testing.T) {
	tb := testTables()
	var inv Inventory
	if inv.AddItem(tb.Item(2), 1, SlotHead) {
		t.Fatalf("衣服不能放头部")
	}
	if !inv.AddItem(tb.Item(2), 1, SlotBody) {
		t.Fatalf("衣服应能放身体")
	}
	if inv.AddItem(tb.Item(2), 1, SlotBody) {
		t.Fatalf("已占用的装备格不能再放")
	}
	if !inv.AddItem(tb.Item(6), 1, SlotRing2) {
		t.Fatalf("戒指可以放第二个戒指位")
	}
}

func TestAddItem_装备格只放一件(t *testing.T) {
	tb := testTables()
	var inv Inventory
	if inv.AddItem(tb.Item(2), 5, SlotBody) {
		t.Fatalf("装备格不能放一叠")
	}
	if !inv[SlotBody].Empty() {
		t.Fatalf("失败时装备格应保持为空")
	}
	if !inv.AddItem(tb.Item(2), 1, SlotBody) || inv[SlotBody].Count != 1 {
		t.Fatalf("单件应能装上")
	}
}

func TestMoveInventory_装备拆一个(t *testing.T) {
	tb := testTables()
	var inv Inventory
	inv[SlotBackpack] = Slot{Item: tb.Item(6), Count: 3}
	if !inv.MoveInventory(SlotBackpack, SlotRing1) {
		t.Fatalf("戒指应能装备")
	}
	if inv[SlotRing1].Count != 1 || inv[SlotBackpack].Count != 2 {
		t.Fatalf("期望拆出 1 个，实际装备 %d 背包 %d", inv[SlotRing1].Count, inv[SlotBackpack].Count)
	}
	if inv.MoveInventory(SlotBackpack, SlotHead) {
		t.Fatalf("戒指不能放头部")
	}
}

func TestMoveInventory_合并与溢出(t *testing.T) {
	tb := testTables()
	var inv Inventory
	inv[SlotBackpack] = Slot{Item: tb.Item(3), Count: 100}
	inv[SlotBackpack+1] = Slot{Item: tb.Item(3), Count: 200}
	if !inv.MoveInventory(SlotBackpack, SlotBackpack+1) {
		t.Fatalf("同类应合并")
	}
	if inv[SlotBackpack+1].Count != MaxStack || inv[SlotBackpack].Count != 45 {
		t.Fatalf("期望 255 + 剩 45，实际 %d / %d", inv[SlotBackpack+1].Count, inv[SlotBackpack].Count)
	}
}

func TestMoveInventory_拒绝反向交换(t *testing.T) {
	tb := testTables()
	var inv Inventory
	inv[SlotHand1] = Slot{Item: tb.Item(1), Count: 1}
	inv[SlotBackpack] = Slot{Item: tb.Item(3), Count: 1}
	if inv.MoveInventory(SlotHand1, SlotBackpack) {
		t.Fatalf("装备格移到已占用背包格应拒绝")
	}
	if !inv.MoveInventory(SlotHand1, SlotBackpack+1) {
		t.Fatalf("卸到空背包格应成功")
	}
	if !inv[SlotHand1].Empty() || inv[SlotBackpack+1].ItemID() != 1 {
		t.Fatalf("卸下后武器应在背包")
	}
	if inv.MoveInventory(SlotBackpack+5, SlotBackpack) || inv.MoveInventory(3, 3) || inv.MoveInventory(0, InventoryCount) {
		t.Fatalf("空格、同格、越界移动都应返回 false")
	}
}

func TestSplitStack(t *testing.T) {
	tb := testTables()
	var inv Inventory
	last := SlotTrade - 1
	inv[last] = Slot{Item: tb.Item(3), Count: 10}
	if inv.SplitStack(last, 10) || inv.SplitStack(last, 0) {
		t.Fatalf("拆分数量必须在 (0, count) 之间")
	}
	if !inv.SplitStack(last, 4) {
		t.Fatalf("拆分应成功")
	}
	if inv[SlotBackpack].Count != 4 || inv[last].Count != 6 {
		t.Fatalf("应绕回背包起点，实际 %d / %d", inv[SlotBackpack].Count, inv[last].Count)
	}
	if inv.SplitStack(SlotHand1, 1) {
		t.Fatalf("只允许拆背包格")
	}
}

func TestUpdateInventory_清空(t *testing.T) {
	tb := testTables()
	var inv Inventory
	inv[8] = Slot{Item: tb.Item(3), Count: 2}
	inv.UpdateInventory(8, -5)
	if !inv[8].Empty() {
		t.Fatalf("减到 0 以下应清空")
	}
}

func TestMoveTradeToInventory(t *testing.T) {
	tb := testTables()
	var inv Inventory
	inv[SlotTrade] = Slot{Item: tb.Item(3), Count: 5}
	inv[SlotTrade+2] = Slot{Item: tb.Item(1), Count: 1}
	inv.MoveTradeToInventory()
	if !inv[SlotTrade].Empty() || !inv[SlotTrade+2].Empty() {
		t.Fatalf("交易栏应清空")
	}
	if inv.CountItem(tb.Item(3)) != 5 || inv.CountItem(tb.Item(1)) != 1 {
		t.Fatalf("物品应回到背包")
	}
}

func TestTrader(t *testing.T) {
	tb := testTables()
	tr := tb.Trader(1)
	var inv Inventory
	inv[10] = Slot{Item: tb.Item(11), Count: 2}
	reward, _ := inv.RequiredItemSlots(tb, tr)
	if reward != NoSlot {
		t.Fatalf("材料不够时奖励格应为 NoSlot")
	}
	inv[10].Count = 5
	reward, required := inv.RequiredItemSlots(tb, tr)
	if reward != SlotBackpack || required[0] != 10 {
		t.Fatalf("期望奖励格 7 材料格 10，实际 %d %v", reward, required)
	}
	if !inv.AcceptTrader(tb, tr, required, reward) {
		t.Fatalf("兑换应成功")
	}
	if inv[10].Count != 2 || inv[SlotBackpack].ItemID() != 6 {
		t.Fatalf("兑换后材料剩 2、奖励在 7，实际 %d / %d", inv[10].Count, inv[SlotBackpack].ItemID())
	}
}
