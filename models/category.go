package models

// Category is the qualitative band an AQI value falls into.
type Category string

const (
	CategoryGood          Category = "good"
	CategoryModerate      Category = "moderate"
	CategorySensitive     Category = "unhealthy_sensitive"
	CategoryUnhealthy     Category = "unhealthy"
	CategoryVeryUnhealthy Category = "very_unhealthy"
	CategoryHazardous     Category = "hazardous"
)

// aqiBreakpoints is the standard EPA banding. Upper bounds are inclusive;
// anything above the last bound is hazardous.
var aqiBreakpoints = []struct {
	upper    int
	category Category
}{
	{50, CategoryGood},
	{100, CategoryModerate},
	{150, CategorySensitive},
	{200, CategoryUnhealthy},
	{300, CategoryVeryUnhealthy},
}

// CategoryForAQI maps an AQI value to its band. Negative values are clamped
// to good so a malformed reading still lands in a defined band.
func CategoryForAQI(aqi int) Category {
	for _, bp := range aqiBreakpoints {
		if aqi <= bp.upper {
			return bp.category
		}
	}
	return CategoryHazardous
}
