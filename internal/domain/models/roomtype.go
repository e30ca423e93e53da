// internal/domain/models/roomtype.go
package models

// Category groups room types by bed configuration for agents.
type Category string

const (
	CategoryKing  Category = "king"
	CategoryQueen Category = "queen"
)

// Categories lists the agent-facing categories in display order.
var Categories = []Category{CategoryKing, CategoryQueen}

// Label is the human-facing category name.
func (c Category) Label() string {
	switch c {
	case CategoryKing:
		return "King Rooms"
	case CategoryQueen:
		return "Queen Rooms"
	}
	return string(c)
}

// categoryMembers is the fixed membership of each category. Types outside
// these lists are valid but do not appear in agent category views.
var categoryMembers = map[Category][]string{
	CategoryKing:  {"KXTY", "NKXUE", "NKXUD", "KXPL", "NKXUG"},
	CategoryQueen: {"SXQL", "NQRUE", "NQRUD"},
}

// ParseCategory resolves a category key ("king", "queen").
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	_, ok := categoryMembers[c]
	return c, ok
}

// CategoryTypes returns the type codes that belong to c.
func CategoryTypes(c Category) []string {
	m := categoryMembers[c]
	out := make([]string, len(m))
	copy(out, m)
	return out
}

// CategoryOf returns the category a type code belongs to, or "".
func CategoryOf(code string) Category {
	code = NormalizeType(code)
	for _, c := range Categories {
		for _, t := range categoryMembers[c] {
			if t == code {
				return c
			}
		}
	}
	return ""
}

// RoomType is a configured room type code and its description.
type RoomType struct {
	Code        string   `json:"code" bson:"code" validate:"required,max=16,alphanum"`
	Description string   `json:"description" bson:"description" validate:"max=200"`
	Category    Category `json:"category,omitempty" bson:"category,omitempty"`
}

// NewRoomType builds a RoomType with a normalized code and derived category.
func NewRoomType(code, description string) RoomType {
	code = NormalizeType(code)
	return RoomType{
		Code:        code,
		Description: description,
		Category:    CategoryOf(code),
	}
}

var defaultRoomTypes = []RoomType{
	NewRoomType("KXTY", "1 King bed with sofabed, non-smoking room"),
	NewRoomType("NKXUE", "1 King bed with sofabed, mobility and hearing accessible room with roll-in shower, non-smoking"),
	NewRoomType("NKXUD", "1 King bed with sofabed, mobility and hearing accessible room with tub, non-smoking"),
	NewRoomType("KXPL", "1 King bed with sofabed, large room, non-smoking"),
	NewRoomType("NKXUG", "1 King bed with sofabed, hearing accessible room, non-smoking"),
	NewRoomType("SXQL", "2 Queen beds, non-smoking room"),
	NewRoomType("NQRUE", "2 Queen beds, mobility and hearing accessible room with roll-in shower, non-smoking"),
	NewRoomType("NQRUD", "2 Queen beds, mobility and hearing accessible room with tub, non-smoking"),
}

// DefaultRoomTypes returns the built-in room types used when none are stored.
func DefaultRoomTypes() []RoomType {
	out := make([]RoomType, len(defaultRoomTypes))
	copy(out, defaultRoomTypes)
	return out
}

// TypeCodes extracts the codes from types, in order.
func TypeCodes(types []RoomType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, t.Code)
	}
	return out
}

// DescribeType returns the description for code from types, falling back to
// the built-in descriptions and finally to the code itself.
func DescribeType(types []RoomType, code string) string {
	code = NormalizeType(code)
	for _, t := range types {
		if t.Code == code && t.Description != "" {
			return t.Description
		}
	}
	for _, t := range defaultRoomTypes {
		if t.Code == code {
			return t.Description
		}
	}
	return code
}
