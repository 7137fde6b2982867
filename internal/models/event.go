package models

// Recipe lifecycle operations published as events.
const (
	OperationCreated = "recipe.created"
	OperationUpdated = "recipe.updated"
	OperationDeleted = "recipe.deleted"
)

// RecipeEvent is published after a recipe mutation completes.
type RecipeEvent struct {
	EventID   string `json:"event_id"`
	Timestamp int64  `json:"timestamp"`
	RecipeID  int64  `json:"recipe_id"`
	AuthorID  int64  `json:"author_id"`
	Operation string `json:"operation"`
}
