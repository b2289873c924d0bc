package models

import (
	"time"
)

const (
	MinCookingTime = 1
	MaxCookingTime = 32000
	MinAmount      = 1
	MaxAmount      = 32000
)

type Ingredient struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	Name            string `gorm:"size:128;not null;uniqueIndex:idx_ingredient_name_unit" json:"name"`
	MeasurementUnit string `gorm:"size:64;not null;uniqueIndex:idx_ingredient_name_unit" json:"measurement_unit"`
}

type Tag struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:32;uniqueIndex;not null" json:"name"`
	Slug string `gorm:"size:32;uniqueIndex;not null" json:"slug"`
}

type Recipe struct {
	ID          uint      `gorm:"primarykey"`
	AuthorID    uint      `gorm:"not null;index"`
	Author      User      `gorm:"constraint:OnDelete:CASCADE"`
	Name        string    `gorm:"size:256;not null"`
	Text        string    `gorm:"type:text;not null"`
	Image       string    `gorm:"size:255"`
	CookingTime int       `gorm:"not null;check:chk_recipe_cooking_time,cooking_time >= 1"`
	PubDate     time.Time `gorm:"not null;index"`
	// ShortLink is assigned once when the recipe is inserted and never changes.
	ShortLink   string             `gorm:"size:8;not null;uniqueIndex"`
	Ingredients []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE"`
	Tags        []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
}

type RecipeIngredient struct {
	ID           uint       `gorm:"primarykey"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient;index"`
	Ingredient   Ingredient `gorm:"constraint:OnDelete:CASCADE"`
	Amount       int        `gorm:"not null;check:chk_recipe_ingredient_amount,amount >= 1"`
}

type Favorite struct {
	ID       uint      `gorm:"primarykey"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index"`
	AddedAt  time.Time `gorm:"autoCreateTime"`
	User     User      `gorm:"constraint:OnDelete:CASCADE"`
	Recipe   Recipe    `gorm:"constraint:OnDelete:CASCADE"`
}

// ShoppingCartItem puts a recipe's ingredients on a user's shopping list.
type ShoppingCartItem struct {
	ID       uint      `gorm:"primarykey"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	RecipeID uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe;index"`
	AddedAt  time.Time `gorm:"autoCreateTime"`
	User     User      `gorm:"constraint:OnDelete:CASCADE"`
	Recipe   Recipe    `gorm:"constraint:OnDelete:CASCADE"`
}

// All lists every persisted model in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Subscription{},
		&Ingredient{},
		&Tag{},
		&Recipe{},
		&RecipeIngredient{},
		&Favorite{},
		&ShoppingCartItem{},
	}
}
