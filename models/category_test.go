package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryForAQI(t *testing.T) {
	tests := []struct {
		name     string
		aqi      int
		expected Category
	}{
		{"Zero", 0, CategoryGood},
		{"GoodUpperBound", 50, CategoryGood},
		{"ModerateLowerBound", 51, CategoryModerate},
		{"ModerateUpperBound", 100, CategoryModerate},
		{"Sensitive", 135, CategorySensitive},
		{"UnhealthyLowerBound", 151, CategoryUnhealthy},
		{"VeryUnhealthy", 250, CategoryVeryUnhealthy},
		{"HazardousBoundary", 301, CategoryHazardous},
		{"ExtremeValue", 999, CategoryHazardous},
		{"NegativeClampsToGood", -5, CategoryGood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategoryForAQI(tt.aqi))
		})
	}
}
