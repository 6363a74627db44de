package protocol

import "strconv"

// Opcode 每个包的第一个字节。
type Opcode uint8

const (
	OpVersion Opcode = iota
	OpAccountExists
	OpAccountInUse
	OpAccountLoginInfo
	OpAccountNotFound
	OpAccountSuccess
	OpCharactersDelete
	OpCharactersList
	OpCharactersPlay
	OpCharactersRequest
	OpCreateCharacterInfo
	OpCreateCharacterInUse
	OpCreateCharacterSuccess
	OpWorldYourCharacterInfo
	OpWorldChangeMaps
	OpWorldCreateObject
	OpWorldDeleteObject
	OpWorldObjectUpdates
	OpWorldMoveCommand
	OpWorldPosition
	OpWorldHUD
	OpWorldStartBattle
	OpWorldBusy
	OpWorldAttackPlayer
	OpWorldTeleport
	OpWorldTeleportStart
	OpEventStart
	OpEventEnd
	OpBattleCommand
	OpBattleClientDone
	OpBattleUpdate
	OpBattleEnd
	OpInventoryMove
	OpInventoryUse
	OpInventorySplit
	OpInventoryUpdate
	OpVendorExchange
	OpTraderAccept
	OpBlacksmithUpgrade
	OpSkillsSkillBar
	OpSkillsSkillAdjust
	OpChatMessage
	OpTradeRequest
	OpTradeCancel
	OpTradeItem
	OpTradeGold
	OpTradeAccept
	OpTradeExchange

	opcodeCount
)

var opcodeNames = [opcodeCount]string{
	OpVersion:                "VERSION",
	OpAccountExists:          "ACCOUNT_EXISTS",
	OpAccountInUse:           "ACCOUNT_INUSE",
	OpAccountLoginInfo:       "ACCOUNT_LOGININFO",
	OpAccountNotFound:        "ACCOUNT_NOTFOUND",
	OpAccountSuccess:         "ACCOUNT_SUCCESS",
	OpCharactersDelete:       "CHARACTERS_DELETE",
	OpCharactersList:         "CHARACTERS_LIST",
	OpCharactersPlay:         "CHARACTERS_PLAY",
	OpCharactersRequest:      "CHARACTERS_REQUEST",
	OpCreateCharacterInfo:    "CREATECHARACTER_INFO",
	OpCreateCharacterInUse:   "CREATECHARACTER_INUSE",
	OpCreateCharacterSuccess: "CREATECHARACTER_SUCCESS",
	OpWorldYourCharacterInfo: "WORLD_YOURCHARACTERINFO",
	OpWorldChangeMaps:        "WORLD_CHANGEMAPS",
	OpWorldCreateObject:      "WORLD_CREATEOBJECT",
	OpWorldDeleteObject:      "WORLD_DELETEOBJECT",
	OpWorldObjectUpdates:     "WORLD_OBJECTUPDATES",
	OpWorldMoveCommand:       "WORLD_MOVECOMMAND",
	OpWorldPosition:          "WORLD_POSITION",
	OpWorldHUD:               "WORLD_HUD",
	OpWorldStartBattle:       "WORLD_STARTBATTLE",
	OpWorldBusy:              "WORLD_BUSY",
	OpWorldAttackPlayer:      "WORLD_ATTACKPLAYER",
	OpWorldTeleport:          "WORLD_TELEPORT",
	OpWorldTeleportStart:     "WORLD_TELEPORTSTART",
	OpEventStart:             "EVENT_START",
	OpEventEnd:               "EVENT_END",
	OpBattleCommand:          "BATTLE_COMMAND",
	OpBattleClientDone:       "BATTLE_CLIENTDONE",
	OpBattleUpdate:           "BATTLE_UPDATE",
	OpBattleEnd:              "BATTLE_END",
	OpInventoryMove:          "INVENTORY_MOVE",
	OpInventoryUse:           "INVENTORY_USE",
	OpInventorySplit:         "INVENTORY_SPLIT",
	OpInventoryUpdate:        "INVENTORY_UPDATE",
	OpVendorExchange:         "VENDOR_EXCHANGE",
	OpTraderAccept:           "TRADER_ACCEPT",
	OpBlacksmithUpgrade:      "BLACKSMITH_UPGRADE",
	OpSkillsSkillBar:         "SKILLS_SKILLBAR",
	OpSkillsSkillAdjust:      "SKILLS_SKILLADJUST",
	OpChatMessage:            "CHAT_MESSAGE",
	OpTradeRequest:           "TRADE_REQUEST",
	OpTradeCancel:            "TRADE_CANCEL",
	OpTradeItem:              "TRADE_ITEM",
	OpTradeGold:              "TRADE_GOLD",
	OpTradeAccept:            "TRADE_ACCEPT",
	OpTradeExchange:          "TRADE_EXCHANGE",
}

func (o Opcode) String() string {
	if o.Valid() {
		return opcodeNames[o]
	}
	return "OPCODE_" + strconv.Itoa(int(o))
}

func (o Opcode) Valid() bool { return o < opcodeCount }

// Opcodes 全部合法 opcode，按数值排序。
func Opcodes() []Opcode {
	out := make([]Opcode, 0, opcodeCount)
	for o := Opcode(0); o < opcodeCount; o++ {
		out = append(out, o)
	}
	return out
}
