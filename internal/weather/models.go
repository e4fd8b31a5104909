package weather

import (
	"time"

	"github.com/geoagent/geoagent/internal/geo"
	"github.com/geoagent/geoagent/internal/provider"
)

// Condition represents the general weather condition.
type Condition string

const (
	ConditionClear        Condition = "CLEAR"
	ConditionClouds       Condition = "CLOUDS"
	ConditionRain         Condition = "RAIN"
	ConditionDrizzle      Condition = "DRIZZLE"
	ConditionThunderstorm Condition = "THUNDERSTORM"
	ConditionSnow         Condition = "SNOW"
	ConditionMist         Condition = "MIST"
	ConditionFog          Condition = "FOG"
	ConditionHaze         Condition = "HAZE"
	ConditionUnknown      Condition = "UNKNOWN"
)

// CurrentWeather is the observed weather at one place.
type CurrentWeather struct {
	Location      string         `json:"location,omitempty"`
	Coordinate    geo.Coordinate `json:"coordinate"`
	Temperature   float64        `json:"temperature"` // Celsius
	FeelsLike     float64        `json:"feels_like"`
	Humidity      int            `json:"humidity"` // percent
	Pressure      int            `json:"pressure"` // hPa
	WindSpeed     float64        `json:"wind_speed"`     // m/s
	WindDirection int            `json:"wind_direction"` // degrees
	Condition     Condition      `json:"condition"`
	Description   string         `json:"description"`
	Icon          string         `json:"icon,omitempty"`
	Clouds        int            `json:"clouds"`               // percent
	Visibility    *int           `json:"visibility,omitempty"` // meters
	ObservedAt    time.Time      `json:"observed_at"`
}

// Validate checks the value ranges of an observation.
func (w *CurrentWeather) Validate() error {
	if err := w.Coordinate.Validate(); err != nil {
		return provider.ValidationError("current weather: %v", err)
	}
	if err := checkPercent("humidity", w.Humidity); err != nil {
		return err
	}
	if err := checkPercent("clouds", w.Clouds); err != nil {
		return err
	}
	if w.WindDirection < 0 || w.WindDirection > 360 {
		return provider.ValidationError("wind direction %d out of range [0, 360]", w.WindDirection)
	}
	if w.WindSpeed < 0 {
		return provider.ValidationError("negative wind speed %f", w.WindSpeed)
	}
	if w.Description == "" {
		return provider.ValidationError("current weather: missing description")
	}
	return nil
}

// ForecastEntry is one 3-hour forecast step.
type ForecastEntry struct {
	Time                     time.Time `json:"time"`
	Temperature              float64   `json:"temperature"`
	FeelsLike                float64   `json:"feels_like"`
	Humidity                 int       `json:"humidity"`
	Pressure                 int       `json:"pressure"`
	WindSpeed                float64   `json:"wind_speed"`
	Condition                Condition `json:"condition"`
	Description              string    `json:"description"`
	PrecipitationProbability float64   `json:"precipitation_probability"` // 0-1
	Clouds                   int       `json:"clouds"`
}

// Validate checks the value ranges of a forecast entry.
func (e *ForecastEntry) Validate() error {
	if e.PrecipitationProbability < 0 || e.PrecipitationProbability > 1 {
		return provider.ValidationError("precipitation probability %f out of range [0, 1]", e.PrecipitationProbability)
	}
	if err := checkPercent("humidity", e.Humidity); err != nil {
		return err
	}
	return checkPercent("clouds", e.Clouds)
}

// Forecast is a sequence of entries in the order the upstream returned them.
type Forecast struct {
	Location   string          `json:"location,omitempty"`
	Coordinate geo.Coordinate  `json:"coordinate"`
	Timezone   *time.Location  `json:"-"`
	Entries    []ForecastEntry `json:"entries"`
}

// DailySummary aggregates the forecast entries of one calendar day.
type DailySummary struct {
	Date                     string  `json:"date"` // YYYY-MM-DD in the location's timezone
	TempMin                  float64 `json:"temp_min"`
	TempMax                  float64 `json:"temp_max"`
	TempDay                  float64 `json:"temp_day"`
	TempNight                float64 `json:"temp_night"`
	Humidity                 int     `json:"humidity"`
	WindSpeed                float64 `json:"wind_speed"`
	Description              string  `json:"description"`
	PrecipitationProbability float64 `json:"precipitation_probability"`
}

// Summarize groups entries by calendar day in tz and aggregates each day.
// Days appear in first-seen order. Day temperature averages entries between 06:00
// and 18:00, night temperature the rest; when a day has no such entries the
// overall mean (day) or the first entry (night) stands in.
func Summarize(entries []ForecastEntry, tz *time.Location) []DailySummary {
	if tz == nil {
		tz = time.UTC
	}

	var order []string
	byDay := make(map[string][]ForecastEntry)
	for _, e := range entries {
		key := e.Time.In(tz).Format(time.DateOnly)
		if _, ok := byDay[key]; !ok {
			order = append(order, key)
		}
		byDay[key] = append(byDay[key], e)
	}

	out := make([]DailySummary, 0, len(order))
	for _, key := range order {
		out = append(out, summarizeDay(key, byDay[key], tz))
	}
	return out
}

func summarizeDay(date string, items []ForecastEntry, tz *time.Location) DailySummary {
	d := DailySummary{
		Date:        date,
		TempMin:     items[0].Temperature,
		TempMax:     items[0].Temperature,
		Description: items[len(items)/2].Description,
	}

	var sum, daySum, nightSum, wind float64
	var humidity, dayN, nightN int
	for _, e := range items {
		sum += e.Temperature
		wind += e.WindSpeed
		humidity += e.Humidity
		d.TempMin = min(d.TempMin, e.Temperature)
		d.TempMax = max(d.TempMax, e.Temperature)
		d.PrecipitationProbability = max(d.PrecipitationProbability, e.PrecipitationProbability)

		if h := e.Time.In(tz).Hour(); h >= 6 && h <= 18 {
			daySum += e.Temperature
			dayN++
		} else {
			nightSum += e.Temperature
			nightN++
		}
	}

	n := float64(len(items))
	d.TempDay = sum / n
	if dayN > 0 {
		d.TempDay = daySum / float64(dayN)
	}
	d.TempNight = items[0].Temperature
	if nightN > 0 {
		d.TempNight = nightSum / float64(nightN)
	}
	d.Humidity = humidity / len(items)
	d.WindSpeed = wind / n
	return d
}

func checkPercent(field string, v int) error {
	if v < 0 || v > 100 {
		return provider.ValidationError("%s %d out of range [0, 100]", field, v)
	}
	return nil
}
