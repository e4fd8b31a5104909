// Package airquality provides air pollution readings and forecasts on the
// 1 (good) to 5 (very poor) AQI scale.
package airquality

import (
	"time"

	"github.com/geoagent/geoagent/internal/provider"
)

// Pollutant represents an air quality pollutant type.
type Pollutant string

const (
	PollutantCO   Pollutant = "CO"
	PollutantNO   Pollutant = "NO"
	PollutantNO2  Pollutant = "NO2"
	PollutantO3   Pollutant = "O3"
	PollutantSO2  Pollutant = "SO2"
	PollutantPM25 Pollutant = "PM2_5"
	PollutantPM10 Pollutant = "PM10"
	PollutantNH3  Pollutant = "NH3"
)

// AQI bounds.
const (
	MinAQI = 1
	MaxAQI = 5
)

var aqiDescriptions = [...]string{"", "Good", "Fair", "Moderate", "Poor", "Very Poor"}

var healthRecommendations = [...]string{
	"",
	"Air quality is satisfactory, and air pollution poses little or no risk.",
	"Air quality is acceptable. However, there may be a risk for some people, particularly those who are unusually sensitive to air pollution.",
	"Members of sensitive groups may experience health effects. The general public is less likely to be affected.",
	"Some members of the general public may experience health effects; members of sensitive groups may experience more serious health effects.",
	"Health alert: The risk of health effects is increased for everyone.",
}

// Reading is a full air pollution measurement. Concentrations are in μg/m³.
type Reading struct {
	AQI        int       `json:"aqi"`
	CO         float64   `json:"co"`
	NO         float64   `json:"no"`
	NO2        float64   `json:"no2"`
	O3         float64   `json:"o3"`
	SO2        float64   `json:"so2"`
	PM25       float64   `json:"pm2_5"`
	PM10       float64   `json:"pm10"`
	NH3        float64   `json:"nh3"`
	MeasuredAt time.Time `json:"measured_at"`
}

// NewReading validates r and returns it.
func NewReading(r Reading) (*Reading, error) {
	if err := ValidateAQI(r.AQI); err != nil {
		return nil, err
	}
	for p, v := range r.Components() {
		if v < 0 {
			return nil, provider.ValidationError("negative %s concentration %f", p, v)
		}
	}
	return &r, nil
}

// Components returns the pollutant concentrations keyed by pollutant.
func (r *Reading) Components() map[Pollutant]float64 {
	return map[Pollutant]float64{
		PollutantCO:   r.CO,
		PollutantNO:   r.NO,
		PollutantNO2:  r.NO2,
		PollutantO3:   r.O3,
		PollutantSO2:  r.SO2,
		PollutantPM25: r.PM25,
		PollutantPM10: r.PM10,
		PollutantNH3:  r.NH3,
	}
}

// Description returns the label of the AQI level.
func (r *Reading) Description() string {
	return Describe(r.AQI)
}

// HealthRecommendation returns guidance for the AQI level.
func (r *Reading) HealthRecommendation() string {
	if r.AQI < MinAQI || r.AQI > MaxAQI {
		return "No recommendation available"
	}
	return healthRecommendations[r.AQI]
}

// ForecastPoint is one hourly air quality forecast value.
type ForecastPoint struct {
	Time time.Time `json:"time"`
	AQI  int       `json:"aqi"`
	PM25 float64   `json:"pm2_5"`
	PM10 float64   `json:"pm10"`
	O3   float64   `json:"o3"`
}

// NewForecastPoint validates p and returns it.
func NewForecastPoint(p ForecastPoint) (ForecastPoint, error) {
	if err := ValidateAQI(p.AQI); err != nil {
		return ForecastPoint{}, err
	}
	return p, nil
}

// Description returns the label of the AQI level.
func (p ForecastPoint) Description() string {
	return Describe(p.AQI)
}

// ValidateAQI fails with a validation error outside [1, 5].
func ValidateAQI(aqi int) error {
	if aqi < MinAQI || aqi > MaxAQI {
		return provider.ValidationError("aqi %d out of range [%d, %d]", aqi, MinAQI, MaxAQI)
	}
	return nil
}

// Describe maps an AQI level to Good, Fair, Moderate, Poor or Very Poor.
func Describe(aqi int) string {
	if aqi < MinAQI || aqi > MaxAQI {
		return "Unknown"
	}
	return aqiDescriptions[aqi]
}
