package services

import (
	"errors"
	"log"

	"InventoryApp/app/database"
	"InventoryApp/app/models"
	"InventoryApp/app/storage"

	"gorm.io/gorm"
)

// RecipeService handles recipes and their derived cost fields. The stored
// recipe_cost, profit and profit_margin are caches of ComputeRecipeCost over
// current ingredient and item state; every mutation that can change them
// recomputes inside the same transaction.
type RecipeService struct {
	BaseService
	images *storage.ImageStore
	events EventPublisher
}

// NewRecipeService creates a new recipe service
func NewRecipeService() *RecipeService {
	s := &RecipeService{}
	s.db = database.GetDB()
	store, err := storage.NewImageStore()
	if err != nil {
		// Recipes still work without images; image operations will fail
		// with a storage error until a store is set.
		log.Printf("Recipe image store unavailable: %v", err)
	} else {
		s.images = store
	}
	return s
}

// SetImageStore sets the blob store used for recipe images
func (s *RecipeService) SetImageStore(store *storage.ImageStore) {
	s.images = store
}

// SetEventPublisher sets the publisher used for recipe broadcasts
func (s *RecipeService) SetEventPublisher(events EventPublisher) {
	s.events = events
}

// publishRecipeUpdate notifies clients after a committed recipe mutation
func (s *RecipeService) publishRecipeUpdate(recipeID uint) {
	if s.events != nil {
		s.events.PublishRecipeUpdate(recipeID)
	}
}

// RecipeIngredientInput describes one ingredient line of a recipe
type RecipeIngredientInput struct {
	ItemID   uint    `json:"item_id" validate:"required"`
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	Unit     string  `json:"unit"`
}

// CreateRecipeInput describes a new recipe
type CreateRecipeInput struct {
	Name         string                  `json:"name" validate:"required"`
	Description  string                  `json:"description"`
	SellingPrice float64                 `json:"selling_price" validate:"gte=0"`
	Ingredients  []RecipeIngredientInput `json:"ingredients" validate:"dive"`
}

// UpdateRecipeInput carries the editable fields of a recipe
type UpdateRecipeInput struct {
	ID           uint    `json:"id" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	Description  string  `json:"description"`
	SellingPrice float64 `json:"selling_price" validate:"gte=0"`
}

// CreateRecipe creates a recipe with its ingredient lines and computes the
// derived cost fields, all in one transaction.
func (s *RecipeService) CreateRecipe(input CreateRecipeInput) (*models.Recipe, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		Name:         input.Name,
		Description:  input.Description,
		SellingPrice: input.SellingPrice,
	}

	err := s.WithTransaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return storageErr("create recipe", err)
		}

		for _, ing := range input.Ingredients {
			if err := createIngredientTx(tx, recipe.ID, ing); err != nil {
				return err
			}
		}

		return recomputeRecipeCostTx(tx, recipe.ID)
	})
	if err != nil {
		return nil, err
	}

	s.publishRecipeUpdate(recipe.ID)
	return s.GetRecipe(recipe.ID)
}

// GetRecipe retrieves a recipe with its ingredients and their items
func (s *RecipeService) GetRecipe(id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.Preload("Ingredients.Item").First(&recipe, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "recipe", ID: id}
		}
		return nil, storageErr("load recipe", err)
	}
	return &recipe, nil
}

// ListRecipes retrieves all recipes ordered by name
func (s *RecipeService) ListRecipes() ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := s.db.Preload("Ingredients.Item").Order("name ASC").Find(&recipes).Error; err != nil {
		return nil, storageErr("list recipes", err)
	}
	return recipes, nil
}

// UpdateRecipe updates name, description and selling price. The derived
// fields depend on the selling price, so they are recomputed with the update.
func (s *RecipeService) UpdateRecipe(input UpdateRecipeInput) (*models.Recipe, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	err := s.WithTransaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, input.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "recipe", ID: input.ID}
			}
			return storageErr("load recipe", err)
		}

		updates := map[string]interface{}{
			"name":          input.Name,
			"description":   input.Description,
			"selling_price": input.SellingPrice,
		}
		if err := tx.Model(&recipe).Updates(updates).Error; err != nil {
			return storageErr("update recipe", err)
		}

		return recomputeRecipeCostTx(tx, input.ID)
	})
	if err != nil {
		return nil, err
	}

	s.publishRecipeUpdate(input.ID)
	return s.GetRecipe(input.ID)
}

// DeleteRecipe removes a recipe and its ingredient lines. Deletion is
// rejected while historical orders reference the recipe: order items keep a
// price snapshot but still point at the recipe row for reporting.
func (s *RecipeService) DeleteRecipe(id uint) error {
	return s.WithTransaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "recipe", ID: id}
			}
			return storageErr("load recipe", err)
		}

		var refs int64
		if err := tx.Model(&models.OrderItem{}).Where("recipe_id = ?", id).Count(&refs).Error; err != nil {
			return storageErr("check recipe references", err)
		}
		if refs > 0 {
			return &ValidationError{Field: "ID", Message: "recipe appears in one or more orders"}
		}

		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return storageErr("delete recipe ingredients", err)
		}
		if err := tx.Delete(&models.Recipe{}, id).Error; err != nil {
			return storageErr("delete recipe", err)
		}

		if recipe.Image != "" && s.images != nil {
			s.images.Delete(recipe.Image)
		}
		return nil
	})
}

// AddIngredient adds one ingredient line and recomputes the recipe cost
func (s *RecipeService) AddIngredient(recipeID uint, input RecipeIngredientInput) (*models.Recipe, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	err := s.WithTransaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Count(&count).Error; err != nil {
			return storageErr("check recipe", err)
		}
		if count == 0 {
			return &NotFoundError{Entity: "recipe", ID: recipeID}
		}

		if err := createIngredientTx(tx, recipeID, input); err != nil {
			return err
		}
		return recomputeRecipeCostTx(tx, recipeID)
	})
	if err != nil {
		return nil, err
	}

	s.publishRecipeUpdate(recipeID)
	return s.GetRecipe(recipeID)
}

// UpdateIngredient changes the quantity or unit of an ingredient line and
// recomputes the recipe cost
func (s *RecipeService) UpdateIngredient(ingredientID uint, quantity float64, unit string) (*models.Recipe, error) {
	if quantity <= 0 {
		return nil, &ValidationError{Field: "Quantity", Message: "must be greater than zero"}
	}

	var recipeID uint
	err := s.WithTransaction(func(tx *gorm.DB) error {
		var ingredient models.RecipeIngredient
		if err := tx.First(&ingredient, ingredientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "recipe ingredient", ID: ingredientID}
			}
			return storageErr("load recipe ingredient", err)
		}
		recipeID = ingredient.RecipeID

		updates := map[string]interface{}{"quantity": quantity, "unit": unit}
		if err := tx.Model(&ingredient).Updates(updates).Error; err != nil {
			return storageErr("update recipe ingredient", err)
		}
		return recomputeRecipeCostTx(tx, recipeID)
	})
	if err != nil {
		return nil, err
	}

	s.publishRecipeUpdate(recipeID)
	return s.GetRecipe(recipeID)
}

// RemoveIngredient deletes an ingredient line and recomputes the recipe cost
func (s *RecipeService) RemoveIngredient(ingredientID uint) (*models.Recipe, error) {
	var recipeID uint
	err := s.WithTransaction(func(tx *gorm.DB) error {
		var ingredient models.RecipeIngredient
		if err := tx.First(&ingredient, ingredientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "recipe ingredient", ID: ingredientID}
			}
			return storageErr("load recipe ingredient", err)
		}
		recipeID = ingredient.RecipeID

		if err := tx.Delete(&models.RecipeIngredient{}, ingredientID).Error; err != nil {
			return storageErr("delete recipe ingredient", err)
		}
		return recomputeRecipeCostTx(tx, recipeID)
	})
	if err != nil {
		return nil, err
	}

	s.publishRecipeUpdate(recipeID)
	return s.GetRecipe(recipeID)
}

// RecomputeRecipeCost re-evaluates the derived cost fields of a recipe from
// current ingredient quantities and item costs. Idempotent: with no
// intervening changes a second call yields the same stored values.
func (s *RecipeService) RecomputeRecipeCost(recipeID uint) (*models.Recipe, error) {
	err := s.WithTransaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Count(&count).Error; err != nil {
			return storageErr("check recipe", err)
		}
		if count == 0 {
			return &NotFoundError{Entity: "recipe", ID: recipeID}
		}
		return recomputeRecipeCostTx(tx, recipeID)
	})
	if err != nil {
		return nil, err
	}

	return s.GetRecipe(recipeID)
}

// SetRecipeImage stores image bytes in the blob store and links the key to
// the recipe, replacing any previous image.
func (s *RecipeService) SetRecipeImage(recipeID uint, data []byte) (*models.Recipe, error) {
	if s.images == nil {
		return nil, &StorageError{Op: "store recipe image", Err: errors.New("image store not configured")}
	}

	recipe, err := s.GetRecipe(recipeID)
	if err != nil {
		return nil, err
	}

	key, err := s.images.Save(data)
	if err != nil {
		return nil, storageErr("store recipe image", err)
	}

	previous := recipe.Image
	if err := s.db.Model(&models.Recipe{}).Where("id = ?", recipeID).Update("image", key).Error; err != nil {
		s.images.Delete(key)
		return nil, storageErr("link recipe image", err)
	}

	if previous != "" {
		s.images.Delete(previous)
	}

	return s.GetRecipe(recipeID)
}

// LoadRecipeImage reads the recipe's image bytes from the blob store
func (s *RecipeService) LoadRecipeImage(recipeID uint) ([]byte, error) {
	if s.images == nil {
		return nil, &StorageError{Op: "load recipe image", Err: errors.New("image store not configured")}
	}

	recipe, err := s.GetRecipe(recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.Image == "" {
		return nil, &NotFoundError{Entity: "recipe image", ID: recipeID}
	}

	data, err := s.images.Load(recipe.Image)
	if err != nil {
		return nil, storageErr("load recipe image", err)
	}
	return data, nil
}

// createIngredientTx validates the referenced item and inserts one
// ingredient line inside the caller's transaction
func createIngredientTx(tx *gorm.DB, recipeID uint, input RecipeIngredientInput) error {
	var item models.Item
	if err := tx.First(&item, input.ItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "item", ID: input.ItemID}
		}
		return storageErr("load item", err)
	}

	unit := input.Unit
	if unit == "" {
		unit = item.Unit
	}

	ingredient := models.RecipeIngredient{
		RecipeID: recipeID,
		ItemID:   input.ItemID,
		Quantity: input.Quantity,
		Unit:     unit,
	}
	if err := tx.Create(&ingredient).Error; err != nil {
		return storageErr("create recipe ingredient", err)
	}
	return nil
}

// recomputeRecipeCostTx refreshes the cached cost fields of one recipe
// inside the caller's transaction
func recomputeRecipeCostTx(tx *gorm.DB, recipeID uint) error {
	var recipe models.Recipe
	if err := tx.Preload("Ingredients.Item").First(&recipe, recipeID).Error; err != nil {
		return storageErr("load recipe for recompute", err)
	}

	breakdown := models.ComputeRecipeCost(recipe.SellingPrice, recipe.Ingredients)
	err := tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Updates(map[string]interface{}{
		"recipe_cost":   breakdown.RecipeCost,
		"profit":        breakdown.Profit,
		"profit_margin": breakdown.ProfitMargin,
	}).Error
	if err != nil {
		return storageErr("store recipe cost", err)
	}
	return nil
}

// recomputeRecipesForItemTx refreshes every recipe that uses the item.
// Called by the stock ledger when an "in" transaction changes cost_per_unit.
func recomputeRecipesForItemTx(tx *gorm.DB, itemID uint) error {
	var recipeIDs []uint
	err := tx.Model(&models.RecipeIngredient{}).
		Where("item_id = ?", itemID).
		Distinct("recipe_id").
		Pluck("recipe_id", &recipeIDs).Error
	if err != nil {
		return storageErr("find dependent recipes", err)
	}

	for _, id := range recipeIDs {
		if err := recomputeRecipeCostTx(tx, id); err != nil {
			return err
		}
	}
	return nil
}
