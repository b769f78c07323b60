package protocol

type ObsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	PlayerID        string `json:"player_id"`
	WorldID         string `json:"world_id"`

	Self      SelfObs      `json:"self"`
	Inventory []ItemStack  `json:"inventory"`
	Equipment EquipmentObs `json:"equipment"`

	Entities []EntityObs `json:"entities"`
	Events   []Event     `json:"events"`
}

type SelfObs struct {
	Pos [3]int `json:"pos"`
	HP  int    `json:"hp"`
}

type ItemStack struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

type EquipmentObs struct {
	MainHand string `json:"main_hand"`
	OffHand  string `json:"off_hand"`
}

type EntityObs struct {
	ID   string   `json:"id"`
	Type string   `json:"type"` // "PLAYER", "VILLAGER"
	Pos  [3]int   `json:"pos"`
	HP   int      `json:"hp"`
	Tags []string `json:"tags,omitempty"`

	// Villager-only.
	Profession string     `json:"profession,omitempty"`
	Level      int        `json:"level,omitempty"`
	Offers     []OfferObs `json:"offers,omitempty"`
}

type OfferObs struct {
	Buy      ItemStack `json:"buy"`
	Sell     ItemStack `json:"sell"`
	Uses     int       `json:"uses"`
	MaxUses  int       `json:"max_uses"`
	Disabled bool      `json:"disabled,omitempty"`
}

// Event is a loosely typed observation event: action results,
// particle and sound feedback, damage notices.
type Event map[string]interface{}

// ACT (client -> server)
type ActMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Tick            uint64       `json:"tick"`
	PlayerID        string       `json:"player_id"`
	Instants        []InstantReq `json:"instants,omitempty"`
}

type InstantReq struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	TargetID   string `json:"target_id,omitempty"`
	Hand       string `json:"hand,omitempty"`
	ItemID     string `json:"item_id,omitempty"`
	OfferIndex int    `json:"offer_index,omitempty"`
}
