package cli

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
)

func newLoadIngredientsCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "load-ingredients",
		Short: "Import ingredients from a JSON or CSV file",
		Long: `Imports ingredients from a JSON array of {"name", "measurement_unit"}
objects or a headerless CSV of name,measurement_unit rows. Ingredients that
already exist are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ingredients, err := readIngredients(file)
			if err != nil {
				return err
			}
			return a.withDB(func(db *gorm.DB) error {
				n, err := service.NewIngredientService(db).Import(cmd.Context(), ingredients)
				if err != nil {
					return fmt.Errorf("failed to import ingredients: %w", err)
				}
				a.logger.WithField("created", n).WithField("read", len(ingredients)).Info("ingredients imported")
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "data/ingredients.json", "file to import")
	return cmd
}

func newLoadTagsCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "load-tags",
		Short: "Import tags from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := readTags(file)
			if err != nil {
				return err
			}
			return a.withDB(func(db *gorm.DB) error {
				n, err := service.NewTagService(db).Import(cmd.Context(), tags)
				if err != nil {
					return fmt.Errorf("failed to import tags: %w", err)
				}
				a.logger.WithField("created", n).WithField("read", len(tags)).Info("tags imported")
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "data/tags.json", "file to import")
	return cmd
}

func (a *app) withDB(fn func(db *gorm.DB) error) error {
	db, err := database.New(a.cfg, a.logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	return fn(db)
}

func readIngredients(path string) ([]models.Ingredient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ingredients []models.Ingredient
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		ingredients, err = parseIngredientsCSV(f)
	} else {
		err = json.NewDecoder(f).Decode(&ingredients)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i := range ingredients {
		ingredients[i].ID = 0
		ingredients[i].Name = strings.TrimSpace(ingredients[i].Name)
		ingredients[i].MeasurementUnit = strings.TrimSpace(ingredients[i].MeasurementUnit)
		if ingredients[i].Name == "" || ingredients[i].MeasurementUnit == "" {
			return nil, fmt.Errorf("%s: entry %d needs a name and a measurement unit", path, i+1)
		}
	}
	return ingredients, nil
}

func parseIngredientsCSV(r io.Reader) ([]models.Ingredient, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	var out []models.Ingredient
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, models.Ingredient{Name: rec[0], MeasurementUnit: rec[1]})
	}
}

func readTags(path string) ([]models.Tag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tags []models.Tag
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for i := range tags {
		tags[i].ID = 0
		if tags[i].Name == "" || tags[i].Slug == "" {
			return nil, fmt.Errorf("%s: entry %d needs a name and a slug", path, i+1)
		}
	}
	return tags, nil
}
