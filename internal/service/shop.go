package service

import (
	"context"
	"errors"
	"fmt"

	"trophyhub/internal/model"
	"trophyhub/internal/shop"
)

// Shop service errors.
var ErrItemNotFound = errors.New("store item not found")

// ShopService sells profile cosmetics for earned coins. Purchases are plain
// wallet debits; the transaction history is the purchase record.
type ShopService struct {
	wallet *WalletService
}

// NewShopService creates a new ShopService instance.
func NewShopService(wallet *WalletService) *ShopService {
	return &ShopService{wallet: wallet}
}

// GetStoreItems returns all available store items.
func (s *ShopService) GetStoreItems() []shop.ItemConfig {
	return shop.GetAllItems()
}

// Purchase debits the item price from the user's balance and records the
// purchase. Returns the resulting balance.
func (s *ShopService) Purchase(ctx context.Context, userID int64, itemID shop.ItemID) (int64, error) {
	item, ok := shop.GetItem(itemID)
	if !ok {
		return 0, ErrItemNotFound
	}

	desc := fmt.Sprintf("Purchased %s", item.Name)
	balance, err := s.wallet.Debit(ctx, userID, item.Price, model.TxTypeShopPurchase, &desc)
	if err != nil {
		return 0, err
	}

	return balance, nil
}
