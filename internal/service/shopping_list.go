package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/metrics"
)

// ShoppingListFilename is the attachment name of the exported list.
const ShoppingListFilename = "shopping_cart.csv"

var shoppingListHeader = []string{"Ingredient", "Amount", "Unit"}

// ShoppingListRow is one aggregated line of a shopping list.
type ShoppingListRow struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

// ShoppingListService builds the downloadable shopping list.
type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Aggregate sums the ingredient amounts of every recipe in the cart of
// userID, grouped by ingredient name and measurement unit. Amounts in
// different units are never combined.
func (s *ShoppingListService) Aggregate(ctx context.Context, userID uint) ([]ShoppingListRow, error) {
	rows := []ShoppingListRow{}
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients AS ri").
		Select("i.name AS name, i.measurement_unit AS measurement_unit, SUM(ri.amount) AS amount").
		Joins("JOIN ingredients i ON i.id = ri.ingredient_id").
		Joins("JOIN shopping_cart_items s ON s.recipe_id = ri.recipe_id").
		Where("s.user_id = ?", userID).
		Group("i.name, i.measurement_unit").
		Order("i.name, i.measurement_unit").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// WriteCSV writes rows as UTF-8 CSV under an Ingredient,Amount,Unit header.
func WriteCSV(w io.Writer, rows []ShoppingListRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(shoppingListHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Name, strconv.FormatInt(r.Amount, 10), r.MeasurementUnit}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	metrics.ShoppingListExports.Inc()
	return nil
}
