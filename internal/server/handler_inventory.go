package server

import (
	"context"

	player "choria/internal/player/entity"
	"choria/internal/shared/protocol"
	"choria/internal/world/entity"
	"choria/internal/world/fighter"
)

func (s *Server) handleInventoryMove(_ context.Context, e *entity.Entity, r *protocol.Reader) error {
	from := int(r.ReadUint8())
	to := int(r.ReadUint8())
	if err := r.Err(); err != nil {
		return err
	}
	st := e.Player
	if !st.Inventory.MoveInventory(from, to) {
		return ignore("move_rejected")
	}
	st.CalculateStats(s.c.Tables)
	s.c.Trades.InventoryMoved(e, from, to)
	return nil
}

func (s *Server) handleInventoryUse(_ context.Context, e *entity.Entity, r *protocol.Reader) error {
	slot := int(r.ReadUint8())
	if err := r.Err(); err != nil {
		return err
	}
	st := e.Player
	if st.Status == player.StatusBattle {
		return ignore("in_battle")
	}
	if !st.UsePotionWorld(slot) {
		return ignore("use_rejected")
	}
	s.sendHUD(e)
	s.send(e, protocol.NewPacket(protocol.OpInventoryUse).WriteUint8(uint8(slot)))
	return nil
}

func (s *Server) handleInventorySplit(_ context.Context, e *entity.Entity, r *protocol.Reader) error {
	slot := int(r.ReadUint8())
	count := int(r.ReadUint8())
	if err := r.Err(); err != nil {
		return err
	}
	if !player.IsBackpackSlot(slot) {
		return ignore("split_outside_backpack")
	}
	if !e.Player.Inventory.SplitStack(slot, count) {
		return ignore("split_rejected")
	}
	return nil
}

// handleVendorExchange 买的时候 slot 是商人货架下标，卖的时候是背包格。
func (s *Server) handleVendorExchange(_ context.Context, e *entity.Entity, r *protocol.Reader) error {
	buy := r.ReadBit()
	amount := int(r.ReadUint8())
	slot := int(r.ReadUint8())
	target := player.NoSlot
	if buy {
		target = int(r.ReadInt8())
	}
	if err := r.Err(); err != nil {
		return err
	}

	st := e.Player
	v := st.Vendor
	if v == nil || st.Status != player.StatusVendor {
		return ignore("no_vendor")
	}
	if amount <= 0 {
		return ignore("amount")
	}

	if buy {
		if slot >= len(v.Items) {
			return ignore("vendor_slot")
		}
		item := s.c.Tables.Item(v.Items[slot])
		if item == nil {
			return ignore("vendor_item")
		}
		price := item.Price(v, amount, true)
		if price > st.Gold {
			return ignore("not_enough_gold")
		}
		st.UpdateGold(-price)
		if !st.Inventory.AddItem(item, amount, target) {
			// 放不下就退钱
			st.UpdateGold(price)
			return ignore("inventory_full")
		}
		st.CalculateStats(s.c.Tables)
		return nil
	}

	if slot >= player.InventoryCount || player.IsTradeSlot(slot) {
		return ignore("sell_slot")
	}
	it := st.Inventory[slot]
	if it.Empty() {
		return ignore("sell_empty")
	}
	amount = min(amount, it.Count)
	st.UpdateGold(it.Item.Price(v, amount, false))
	st.Inventory.UpdateInventory(slot, -amount)
	st.CalculateStats(s.c.Tables)
	return nil
}

func (s *Server) handleTraderAccept(_ context.Context, e *entity.Entity, _ *protocol.Reader) error {
	st := e.Player
	tr := st.Trader
	if tr == nil || st.Status != player.StatusTrader {
		return ignore("no_trader")
	}
	rewardSlot, required := st.Inventory.RequiredItemSlots(s.c.Tables, tr)
	if !st.Inventory.AcceptTrader(s.c.Tables, tr, required, rewardSlot) {
		return ignore("trader_requirements")
	}
	st.ClearEvent()
	st.CalculateStats(s.c.Tables)
	return nil
}

func (s *Server) handleBlacksmithUpgrade(_ context.Context, e *entity.Entity, r *protocol.Reader) error {
	slot := int(r.ReadUint8())
	if err := r.Err(); err != nil {
		return err
	}
	st := e.Player
	if !st.Blacksmith || st.Status != player.StatusBusy {
		return ignore("no_blacksmith")
	}
	if !player.IsEquipSlot(slot) && !player.IsBackpackSlot(slot) {
		return ignore("upgrade_slot")
	}
	item := st.Inventory[slot].Item
	if item == nil || item.UpgradeID == 0 {
		return ignore("not_upgradable")
	}
	next := s.c.Tables.Item(item.UpgradeID)
	if next == nil || item.UpgradeCost > st.Gold {
		return ignore("upgrade_rejected")
	}
	st.UpdateGold(-item.UpgradeCost)
	st.Inventory[slot].Item = next
	st.CalculateStats(s.c.Tables)
	s.sendInventoryUpdate(e, slot)
	s.sendHUD(e)
	return nil
}

func (s *Server) handleSkillBar(_ context.Context, e *entity.Entity, r *protocol.Reader) error {
	var bar [fighter.ActionBarSize]int
	for i := range bar {
		bar[i] = int(r.ReadInt8())
	}
	if err := r.Err(); err != nil {
		return err
	}
	st := e.Player
	for i, id := range bar {
		// 没学会的技能直接跳过，不影响其他格
		st.SetActionBar(s.c.Tables, i, id)
	}
	st.CalculateStats(s.c.Tables)
	return nil
}

func (s *Server) handleSkillAdjust(_ context.Context, e *entity.Entity, r *protocol.Reader) error {
	spend := r.ReadBit()
	skillID := int(r.ReadUint8())
	if err := r.Err(); err != nil {
		return err
	}
	st := e.Player
	if !st.AdjustSkillLevel(s.c.Tables, skillID, spend) {
		return ignore("skill_adjust_rejected")
	}
	st.CalculateStats(s.c.Tables)
	return nil
}
