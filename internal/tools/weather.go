package tools

import (
	"context"
	"math"
	"strings"

	"github.com/chris/copiloto/internal/llm"
)

func WeatherTool(om *OpenMeteo) Tool {
	return Tool{
		Name:        "getWeather",
		Description: "Clima actual de una ciudad: temperatura, condición y viento.",
		Parameters: llm.ObjReq(map[string]any{
			"city": llm.Prop("string", "Nombre de la ciudad"),
		}, "city"),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			city, _ := getString(args, "city")
			city = strings.TrimSpace(city)
			if city == "" {
				return nil, ErrCityNotFound
			}
			place, err := om.Geocode(ctx, city)
			if err != nil {
				return nil, err
			}
			cur, err := om.Current(ctx, place.Latitude, place.Longitude)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"city":        place.Name,
				"temperature": int(math.Round(cur.Temperature)),
				"condition":   WeatherLabel(cur.WeatherCode),
				"windSpeed":   cur.WindSpeed,
				"timezone":    place.Timezone,
			}, nil
		},
	}
}

// WeatherLabel maps a WMO weather code to a short Spanish label.
func WeatherLabel(code int) string {
	in := func(lo, hi int) bool { return code >= lo && code <= hi }
	switch {
	case code == 0:
		return "despejado"
	case in(1, 3):
		return "parcialmente nublado"
	case in(45, 48):
		return "niebla"
	case in(51, 57):
		return "llovizna"
	case in(61, 67), in(80, 82):
		return "lluvia"
	case in(71, 77), in(85, 86):
		return "nieve"
	case in(95, 99):
		return "tormenta"
	}
	return "condiciones variables"
}
