package services

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/irfndi/wellcast-go/internal/models"
)

type weatherTier struct {
	name        string
	minScore    float64
	description string
	intensity   float64
	icon        string
}

// weatherTiers are ordered from best to worst; the last tier is the floor.
var weatherTiers = []weatherTier{
	{"sunny", 50, "Bright and steady, you are in a good place", 0.1, "☀️"},
	{"partly-cloudy", 20, "Mostly clear with a few passing clouds", 0.3, "🌤️"},
	{"cloudy", -10, "Some pressure building, worth keeping an eye on", 0.5, "☁️"},
	{"overcast", -30, "Heavy skies, stress is weighing on you", 0.7, "🌥️"},
	{"stormy", -50, "Stormy conditions, burnout risk is high", 0.85, "⛈️"},
	{"critical", 0, "Severe conditions, immediate rest and support needed", 1.0, "🌪️"},
}

// weatherLabel title-cases a tier name. Casers are stateful, so each call
// builds its own.
func weatherLabel(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "-", " "))
}

// determineEmotionalWeather maps score and trend onto a weather tier. A
// critical trend forces the critical tier.
func determineEmotionalWeather(score float64, trend models.Trend) models.EmotionalWeather {
	tier := weatherTiers[len(weatherTiers)-1]
	if trend != models.TrendCritical {
		for _, t := range weatherTiers[:len(weatherTiers)-1] {
			if score >= t.minScore {
				tier = t
				break
			}
		}
	}

	description := tier.description
	switch trend {
	case models.TrendImproving:
		description += " - clearing up"
	case models.TrendDeclining:
		description += " - conditions worsening"
	}

	return models.EmotionalWeather{
		Label:       weatherLabel(tier.name),
		Description: description,
		Intensity:   tier.intensity,
		Icon:        tier.icon,
	}
}

func insufficientDataWeather() models.EmotionalWeather {
	return models.EmotionalWeather{
		Label:       weatherLabel("foggy"),
		Description: "Not enough recent data to read the conditions",
		Intensity:   0,
		Icon:        "🌫️",
	}
}
