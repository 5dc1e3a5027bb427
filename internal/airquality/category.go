package airquality

// Category is a human-readable air-quality band derived from the 1..5 index.
type Category string

const (
	CategoryGood     Category = "Good"
	CategoryFair     Category = "Fair"
	CategoryModerate Category = "Moderate"
	CategoryPoor     Category = "Poor"
	CategoryVeryPoor Category = "Very Poor"
	CategoryUnknown  Category = "Unknown"
)

// Assessment bundles the category with its emoji and an approximated
// US-EPA-style AQI number derived from the PM2.5 concentration.
type Assessment struct {
	Category Category `json:"category"`
	Emoji    string   `json:"emoji"`
	EPAAQI   int      `json:"epaAqi"`
}

// Assess converts an OpenWeather AQI index plus PM2.5 into an Assessment.
// The EPA AQI is a linear approximation per band, not the official
// breakpoint table; posts present it as an estimate ("~N").
func Assess(aqiIndex int, pm25 float64) Assessment {
	switch aqiIndex {
	case 1:
		return Assessment{CategoryGood, "🟢", int(pm25 * 4.8)}
	case 2:
		return Assessment{CategoryFair, "🟢", 50 + int((pm25-10)*4.8)}
	case 3:
		return Assessment{CategoryModerate, "🟡", 100 + int((pm25-25)*1.8)}
	case 4:
		return Assessment{CategoryPoor, "🟠", 150 + int((pm25-50)*1.8)}
	case 5:
		return Assessment{CategoryVeryPoor, "🔴", 200 + int((pm25-75)*2.8)}
	default:
		return Assessment{CategoryUnknown, "❓", 0}
	}
}
