package provider

// feedResponse mirrors the provider's per-station feed payload. Every field
// below the envelope is optional on the wire; validation happens in the
// normalizer, not here.
type feedResponse struct {
	Status string   `json:"status"`
	Data   feedData `json:"data"`
}

type feedData struct {
	AQI         *int                 `json:"aqi"`
	Idx         int                  `json:"idx"`
	DominentPol string               `json:"dominentpol"`
	IAQI        map[string]feedValue `json:"iaqi"`
	Time        feedTime             `json:"time"`
	Forecast    feedForecast         `json:"forecast"`
}

type feedValue struct {
	V float64 `json:"v"`
}

type feedTime struct {
	ISO string `json:"iso"`
	V   int64  `json:"v"`
}

type feedForecast struct {
	Daily map[string][]feedDailyEntry `json:"daily"`
}

type feedDailyEntry struct {
	Avg int    `json:"avg"`
	Day string `json:"day"`
	Max int    `json:"max"`
	Min int    `json:"min"`
}
