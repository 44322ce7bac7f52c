package core

import (
	"strings"
	"time"
)

// Category is the closed set of item categories.
type Category string

const (
	CategoryFruits     Category = "frutas"
	CategoryVegetables Category = "vegetais"
	CategoryMeat       Category = "carnes"
	CategoryDairy      Category = "laticinios"
	CategoryBakery     Category = "padaria"
	CategoryDrinks     Category = "bebidas"
	CategoryCleaning   Category = "limpeza"
	CategoryHygiene    Category = "higiene"
	CategoryOther      Category = "outros"
)

// Categories lists every valid Category in display order.
var Categories = []Category{
	CategoryFruits,
	CategoryVegetables,
	CategoryMeat,
	CategoryDairy,
	CategoryBakery,
	CategoryDrinks,
	CategoryCleaning,
	CategoryHygiene,
	CategoryOther,
}

// Units are the suggested unit codes. Units stay free-form; this list only
// feeds completions and help texts.
var Units = []string{"un", "kg", "g", "L", "ml", "dz", "pct", "cx"}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches s against the category set ignoring case.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

type (
	// Item is a child of exactly one List. Its ID is only unique within
	// that list.
	Item struct {
		ID        string       `json:"id"`
		Name      string       `json:"name"`
		Quantity  float64      `json:"quantity"`
		Unit      string       `json:"unit"`
		Category  Category     `json:"category"`
		Completed bool         `json:"completed"`
		CreatedAt time.Time    `json:"createdAt"`
		AddedBy   *UserSummary `json:"addedBy,omitempty"`
	}

	// Collaborator is a non-owner account with access to a list.
	Collaborator struct {
		AccountID string `json:"id"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		CanEdit   bool   `json:"canEdit"`
	}

	// List is a shared list as returned by the authority. Items keep the
	// order the server returned them in.
	List struct {
		ID          string         `json:"id"`
		Name        string         `json:"name"`
		Description string         `json:"description"`
		ShareCode   string         `json:"shareCode"`
		OwnerID     string         `json:"ownerId"`
		Owner       UserSummary    `json:"owner"`
		Items       []Item         `json:"items"`
		SharedWith  []Collaborator `json:"sharedWith"`
		CreatedAt   time.Time      `json:"createdAt"`
		UpdatedAt   time.Time      `json:"updatedAt"`
	}

	// ItemInput is the payload of an item creation.
	ItemInput struct {
		Name      string   `json:"name"`
		Quantity  float64  `json:"quantity,omitempty"`
		Unit      string   `json:"unit,omitempty"`
		Category  Category `json:"category,omitempty"`
		Completed bool     `json:"completed"`
	}

	// ItemPatch is a partial item update; nil fields are left out of the
	// request.
	ItemPatch struct {
		Name      *string   `json:"name,omitempty"`
		Quantity  *float64  `json:"quantity,omitempty"`
		Unit      *string   `json:"unit,omitempty"`
		Category  *Category `json:"category,omitempty"`
		Completed *bool     `json:"completed,omitempty"`
	}

	// ListPatch is a partial list update.
	ListPatch struct {
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
	}
)

// Clone returns a deep copy of l.
func (l List) Clone() List {
	out := l
	if l.Items != nil {
		out.Items = make([]Item, len(l.Items))
		for i, item := range l.Items {
			out.Items[i] = item.Clone()
		}
	}
	if l.SharedWith != nil {
		out.SharedWith = make([]Collaborator, len(l.SharedWith))
		copy(out.SharedWith, l.SharedWith)
	}
	return out
}

// Clone returns a deep copy of i.
func (i Item) Clone() Item {
	out := i
	if i.AddedBy != nil {
		addedBy := *i.AddedBy
		out.AddedBy = &addedBy
	}
	return out
}

// ItemIndex returns the position of the item with the given id, or -1.
func (l *List) ItemIndex(itemID string) int {
	for i := range l.Items {
		if l.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}
