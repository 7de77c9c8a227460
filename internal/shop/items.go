// Package shop defines the coin store catalog: profile cosmetics purchasable
// with earned coins.
package shop

// ItemID identifies a store item
type ItemID string

// Store items - easily extensible for future cosmetics
const (
	ItemGoldFrame   ItemID = "gold_frame"   // avatar frame
	ItemNeonBanner  ItemID = "neon_banner"  // profile banner
	ItemCustomTitle ItemID = "custom_title" // profile title color
	ItemStickerPack ItemID = "sticker_pack" // chat sticker pack
	ItemTrophyShelf ItemID = "trophy_shelf" // extra showcase slots
)

// ItemCategory groups items for store display
type ItemCategory string

const (
	CategoryFrame   ItemCategory = "frame"
	CategoryBanner  ItemCategory = "banner"
	CategoryChat    ItemCategory = "chat"
	CategoryProfile ItemCategory = "profile"
)

// ItemConfig holds the configuration for a store item
type ItemConfig struct {
	ID          ItemID
	Name        string
	Price       int64
	Description string
	Category    ItemCategory
}

// Items contains all available store items
// Easily extensible - just add new items to this map
var Items = map[ItemID]ItemConfig{
	ItemGoldFrame: {
		ID:          ItemGoldFrame,
		Name:        "Gold avatar frame",
		Price:       500,
		Description: "A golden ring around your avatar",
		Category:    CategoryFrame,
	},
	ItemNeonBanner: {
		ID:          ItemNeonBanner,
		Name:        "Neon profile banner",
		Price:       750,
		Description: "Animated neon banner on your profile page",
		Category:    CategoryBanner,
	},
	ItemCustomTitle: {
		ID:          ItemCustomTitle,
		Name:        "Custom title color",
		Price:       300,
		Description: "Pick the color of your profile title",
		Category:    CategoryProfile,
	},
	ItemStickerPack: {
		ID:          ItemStickerPack,
		Name:        "Trophy sticker pack",
		Price:       200,
		Description: "20 trophy-themed chat stickers",
		Category:    CategoryChat,
	},
	ItemTrophyShelf: {
		ID:          ItemTrophyShelf,
		Name:        "Extended trophy shelf",
		Price:       1000,
		Description: "Showcase up to 12 games on your profile",
		Category:    CategoryProfile,
	},
}

// GetAllItems returns all store items in display order
func GetAllItems() []ItemConfig {
	order := []ItemID{
		ItemGoldFrame,
		ItemNeonBanner,
		ItemCustomTitle,
		ItemStickerPack,
		ItemTrophyShelf,
	}

	items := make([]ItemConfig, 0, len(order))
	for _, id := range order {
		if item, ok := Items[id]; ok {
			items = append(items, item)
		}
	}
	return items
}

// GetItem returns the item config for a given id
func GetItem(id ItemID) (ItemConfig, bool) {
	item, ok := Items[id]
	return item, ok
}
