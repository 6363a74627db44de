package entity

import "choria/internal/shared/gameconfig"

// 背包分区：0~6 装备，7~30 背包，31~38 交易栏。
const (
	SlotHead = iota
	SlotBody
	SlotLegs
	SlotHand1
	SlotHand2
	SlotRing1
	SlotRing2
	SlotBackpack

	SlotTrade      = 31
	InventoryCount = 39
	TradeSlots     = InventoryCount - SlotTrade

	MaxStack = 255
	NoSlot   = -1
)

func IsEquipSlot(slot int) bool    { return slot >= SlotHead && slot < SlotBackpack }
func IsBackpackSlot(slot int) bool { return slot >= SlotBackpack && slot < SlotTrade }
func IsTradeSlot(slot int) bool    { return slot >= SlotTrade && slot < InventoryCount }
func validSlot(slot int) bool      { return slot >= 0 && slot < InventoryCount }

type Slot struct {
	Item  *gameconfig.Item
	Count int
}

func (s Slot) Empty() bool { return s.Item == nil }

func (s Slot) ItemID() int {
	if s.Item == nil {
		return 0
	}
	return s.Item.ID
}

func (s *Slot) clear() { *s = Slot{} }

type Inventory [InventoryCount]Slot

// CanEquip 目标格必须为空且类型匹配。
func (inv *Inventory) CanEquip(slot int, item *gameconfig.Item) bool {
	if item == nil || !IsEquipSlot(slot) || !inv[slot].Empty() {
		return false
	}
	switch item.Type {
	case gameconfig.ItemHead:
		return slot == SlotHead
	case gameconfig.ItemBody:
		return slot == SlotBody
	case gameconfig.ItemLegs:
		return slot == SlotLegs
	case gameconfig.ItemWeapon1Hand, gameconfig.ItemWeapon2Hand:
		return slot == SlotHand1
	case gameconfig.ItemShield:
		return slot == SlotHand2
	case gameconfig.ItemRing:
		return slot == SlotRing1 || slot == SlotRing2
	}
	return false
}

// MoveInventory 拖动物品。装备格只接受能装上的东西；装备格里的东西不能和背包里的物品互换。
func (inv *Inventory) MoveInventory(from, to int) bool {
	if from == to || !validSlot(from) || !validSlot(to) {
		return false
	}
	src, dst := &inv[from], &inv[to]
	if src.Empty() {
		return false
	}

	if IsEquipSlot(to) {
		if !inv.CanEquip(to, src.Item) {
			return false
		}
		if src.Count > 1 {
			*dst = Slot{Item: src.Item, Count: 1}
			src.Count--
			return true
		}
		*src, *dst = *dst, *src
		return true
	}

	if dst.Item == src.Item {
		room := MaxStack - dst.Count
		if room <= 0 {
			return false
		}
		moved := min(room, src.Count)
		dst.Count += moved
		src.Count -= moved
		if src.Count <= 0 {
			src.clear()
		}
		return true
	}

	if IsEquipSlot(from) && !dst.Empty() {
		return false
	}
	*src, *dst = *dst, *src
	return true
}

// UpdateInventory 调整数量，减到 0 清空。
func (inv *Inventory) UpdateInventory(slot, delta int) {
	if !validSlot(slot) || inv[slot].Empty() {
		return
	}
	s := &inv[slot]
	s.Count += delta
	if s.Count > MaxStack {
		s.Count = MaxStack
	}
	if s.Count <= 0 {
		s.clear()
	}
}

// AddItem slot 为 NoSlot 时自动找背包位置。
func (inv *Inventory) AddItem(item *gameconfig.Item, count, slot int) bool {
	if item == nil || count <= 0 || count > MaxStack {
		return false
	}
	if slot == NoSlot {
		for i := SlotBackpack; i < SlotTrade; i++ {
			if inv[i].Item == item && inv[i].Count+count <= MaxStack {
				inv[i].Count += count
				return true
			}
		}
		for i := SlotBackpack; i < SlotTrade; i++ {
			if inv[i].Empty() {
				inv[i] = Slot{Item: item, Count: count}
				return true
			}
		}
		return false
	}
	if !validSlot(slot) {
		return false
	}
	if IsEquipSlot(slot) {
		// 装备格只放一件
		if count != 1 || !inv.CanEquip(slot, item) {
			return false
		}
		inv[slot] = Slot{Item: item, Count: count}
		return true
	}
	s := &inv[slot]
	if s.Item == item && s.Count+count <= MaxStack {
		s.Count += count
		return true
	}
	if s.Empty() {
		*s = Slot{Item: item, Count: count}
		return true
	}
	return false
}

// SplitStack 从背包格拆出 n 个，往后找空格或能装下的同类堆，绕回背包起点。
func (inv *Inventory) SplitStack(slot, n int) bool {
	if !IsBackpackSlot(slot) || n <= 0 {
		return false
	}
	src := &inv[slot]
	if src.Empty() || src.Count <= n {
		return false
	}
	span := SlotTrade - SlotBackpack
	for i := 1; i < span; i++ {
		idx := SlotBackpack + (slot-SlotBackpack+i)%span
		dst := &inv[idx]
		if dst.Empty() || (dst.Item == src.Item && dst.Count <= MaxStack-n) {
			src.Count -= n
			return inv.AddItem(src.Item, n, idx)
		}
	}
	return false
}

// MoveTradeToInventory 交易栏的东西放回背包，放不下的留在原处。
func (inv *Inventory) MoveTradeToInventory() {
	for i := SlotTrade; i < InventoryCount; i++ {
		if inv[i].Empty() {
			continue
		}
		if inv.AddItem(inv[i].Item, inv[i].Count, NoSlot) {
			inv[i].clear()
		}
	}
}

// TradeBand 交易栏的拷贝。
func (inv *Inventory) TradeBand() [TradeSlots]Slot {
	var out [TradeSlots]Slot
	copy(out[:], inv[SlotTrade:])
	return out
}

func (inv *Inventory) SetTradeBand(band [TradeSlots]Slot) {
	copy(inv[SlotTrade:], band[:])
}

// FindPotion 第一个对应种类的药水格，先背包后装备栏。
func (inv *Inventory) FindPotion(kind gameconfig.PotionKind) int {
	for i := SlotBackpack; i < SlotTrade; i++ {
		if !inv[i].Empty() && inv[i].Item.IsPotionKind(kind) {
			return i
		}
	}
	for i := SlotHead; i < SlotBackpack; i++ {
		if !inv[i].Empty() && inv[i].Item.IsPotionKind(kind) {
			return i
		}
	}
	return NoSlot
}

// CountItem 装备栏和背包中某物品的总数。
func (inv *Inventory) CountItem(item *gameconfig.Item) int {
	total := 0
	for i := 0; i < SlotTrade; i++ {
		if inv[i].Item == item {
			total += inv[i].Count
		}
	}
	return total
}

// RequiredItemSlots 交易员兑换：找每种需求物品所在格，以及奖励能放进的格。
// 缺任何一种时 rewardSlot 为 NoSlot。
func (inv *Inventory) RequiredItemSlots(t *gameconfig.Tables, tr *gameconfig.Trader) (rewardSlot int, required []int) {
	reward := t.Item(tr.RewardItem)
	rewardSlot = NoSlot
	for i := SlotBackpack; i < SlotTrade; i++ {
		if inv[i].Empty() || (inv[i].Item == reward && inv[i].Count+tr.Count <= MaxStack) {
			rewardSlot = i
			break
		}
	}
	required = make([]int, len(tr.Items))
	for j, want := range tr.Items {
		required[j] = NoSlot
		item := t.Item(want.ItemID)
		for i := 0; i < SlotTrade; i++ {
			if inv[i].Item == item && inv[i].Count >= want.Count {
				required[j] = i
				break
			}
		}
		if required[j] == NoSlot {
			rewardSlot = NoSlot
		}
	}
	return rewardSlot, required
}

// AcceptTrader 扣除需求物品并发放奖励。
func (inv *Inventory) AcceptTrader(t *gameconfig.Tables, tr *gameconfig.Trader, required []int, rewardSlot int) bool {
	if rewardSlot == NoSlot || len(required) != len(tr.Items) {
		return false
	}
	for j, slot := range required {
		inv.UpdateInventory(slot, -tr.Items[j].Count)
	}
	return inv.AddItem(t.Item(tr.RewardItem), tr.Count, rewardSlot)
}
