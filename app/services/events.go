package services

// EventPublisher pushes change notifications to connected UI and companion
// clients. Publishing happens after the owning transaction commits; a nil
// publisher disables notifications.
type EventPublisher interface {
	PublishStockUpdate(itemID uint)
	PublishOrderPlaced(orderID uint)
	PublishRecipeUpdate(recipeID uint)
}
