package models

// RecipeFilter selects non-deleted recipes. Nil fields are not filtered on.
// Name, Description and Author are case-insensitive substring matches;
// Author matches the author's user name.
type RecipeFilter struct {
	Name        *string
	Description *string
	Author      *string
	AuthorID    *int64
	Limit       int
	Page        int
}

// IsEmpty reports whether no predicate was supplied.
func (f RecipeFilter) IsEmpty() bool {
	return f.Name == nil && f.Description == nil && f.Author == nil && f.AuthorID == nil
}
