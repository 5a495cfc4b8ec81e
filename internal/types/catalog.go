// Package types provides the data model shared by the recommendation pipeline stages.
package types

// CatalogItem is a read-only training content record from the catalog.
type CatalogItem struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	MajorCategory   string    `json:"majorCategory,omitempty"`
	MiddleCategory  string    `json:"middleCategory,omitempty"`
	MinorCategory   string    `json:"minorCategory,omitempty"`
	Level0          string    `json:"level0,omitempty"`
	Level1          string    `json:"level1,omitempty"`
	Level2          string    `json:"level2,omitempty"`
	Level3          string    `json:"level3,omitempty"`
	Intro           string    `json:"intro,omitempty"`
	Objective       string    `json:"objective,omitempty"`
	TargetAudience  string    `json:"targetAudience,omitempty"`
	Curriculum      []string  `json:"curriculum,omitempty"`
	DetailContent   string    `json:"detailContent,omitempty"`
	Fee             int64     `json:"fee"`
	Sessions        int       `json:"sessions"`
	DevelopmentYear string    `json:"developmentYear,omitempty"`
	Embedding       []float32 `json:"-"`
}

// DifficultyLevel returns the level used for learning-path bucketing:
// Level0, falling back to Level1.
func (c *CatalogItem) DifficultyLevel() string {
	if c.Level0 != "" {
		return c.Level0
	}
	return c.Level1
}

// SearchText is the combined text used for exclusion filtering.
func (c *CatalogItem) SearchText() string {
	return c.Title + " " + c.Intro + " " + c.Objective
}

// CatalogField names a searchable catalog text field.
type CatalogField string

const (
	FieldTitle          CatalogField = "title"
	FieldIntro          CatalogField = "intro"
	FieldObjective      CatalogField = "objective"
	FieldMajorCategory  CatalogField = "major_category"
	FieldMiddleCategory CatalogField = "middle_category"
	FieldMinorCategory  CatalogField = "minor_category"
)

// HardFilterFields are the fields searched by the hard filter.
var HardFilterFields = []CatalogField{
	FieldTitle, FieldIntro, FieldObjective,
	FieldMajorCategory, FieldMiddleCategory, FieldMinorCategory,
}

// CatalogQuery is a case-insensitive substring OR search over Fields,
// ordered by development year descending.
type CatalogQuery struct {
	AnyOf  []string
	Fields []CatalogField
	Limit  int
}
