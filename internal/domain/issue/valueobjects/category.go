package valueobjects

import "fmt"

type Category string

const (
	CategoryRoads       Category = "roads"
	CategoryWaste       Category = "waste"
	CategoryUtilities   Category = "utilities"
	CategorySafety      Category = "safety"
	CategoryEnvironment Category = "environment"
)

var validCategories = map[Category]bool{
	CategoryRoads:       true,
	CategoryWaste:       true,
	CategoryUtilities:   true,
	CategorySafety:      true,
	CategoryEnvironment: true,
}

func (c Category) String() string {
	return string(c)
}

func (c Category) IsValid() bool {
	return validCategories[c]
}

func NewCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid category: %s", s)
	}
	return c, nil
}
