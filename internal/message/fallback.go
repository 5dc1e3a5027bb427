package message

import "github.com/airaware/aqibot/internal/airquality"

var fallbackMessages = map[airquality.Category]string{
	airquality.CategoryGood:     "Enjoy the fresh air and outdoor activities today! 🌱",
	airquality.CategoryFair:     "Air quality is acceptable - sensitive groups should monitor conditions. 🌤️",
	airquality.CategoryModerate: "Consider limiting prolonged outdoor exertion if you're sensitive to air pollution. 😷",
	airquality.CategoryPoor:     "Wear a mask outdoors and limit strenuous activities to protect your lungs. 😷",
	airquality.CategoryVeryPoor: "Stay indoors if possible and use air purifiers to minimize health risks. ⚠️",
	airquality.CategoryUnknown:  "Stay hydrated and be mindful of your surroundings today. 💧",
}

// Fallback returns the canned care message for a category, used whenever the
// generative API is unavailable or returns an unusable response.
func Fallback(cat airquality.Category) string {
	if msg, ok := fallbackMessages[cat]; ok {
		return msg
	}
	return "Take care of your respiratory health today. 💙"
}
