package domain

import (
	"fmt"
	"strconv"
)

// SubCategory is the site-specific code selecting one paginated listing stream.
type SubCategory int

func (s SubCategory) String() string {
	return strconv.Itoa(int(s))
}

// Category is an output bucket made of one or more sub-category streams.
// ID is the numeric identifier used by the relational store.
type Category struct {
	ID            int           `mapstructure:"id" json:"id"`
	Name          string        `mapstructure:"name" json:"name"`
	SubCategories []SubCategory `mapstructure:"sub_categories" json:"sub_categories"`
}

func (c Category) String() string {
	return fmt.Sprintf("%s(%d)", c.Name, c.ID)
}

// DefaultCategories mirrors the production sweep: monitors, keyboards,
// mice, desks and chairs.
var DefaultCategories = []Category{
	{ID: 1, Name: "monitor", SubCategories: []SubCategory{112757, 11248106, 11230049, 11230059, 11230081, 11230076}},
	{ID: 2, Name: "keyboard", SubCategories: []SubCategory{11335184, 1131635, 1139922, 11317385, 11341565, 11347372, 11342148, 11342291, 11344629}},
	{ID: 3, Name: "mouse", SubCategories: []SubCategory{11310719, 11317389, 11312617, 1131804}},
	{ID: 4, Name: "desk", SubCategories: []SubCategory{15335915, 15343651, 15344971, 15335908, 15344981}},
	{ID: 5, Name: "chair", SubCategories: []SubCategory{15345047, 15345042, 15345043, 15346299, 15345045}},
}
