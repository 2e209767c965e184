package tools

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	_ "time/tzdata" // zone lookups must work on hosts without zoneinfo

	"github.com/chris/copiloto/internal/llm"
)

func TimeTool(om *OpenMeteo, now func() time.Time) Tool {
	if now == nil {
		now = time.Now
	}
	return Tool{
		Name:        "getTime",
		Description: "Hora actual en una ciudad o zona horaria (por ejemplo Madrid o America/Lima).",
		Parameters: llm.Obj(map[string]any{
			"place": llm.Prop("string", "Ciudad o zona horaria IANA"),
		}),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			place, _ := getString(args, "place")
			label, loc := resolveZone(ctx, om, strings.TrimSpace(place))
			return map[string]any{
				"place":    label,
				"timezone": loc.String(),
				"time":     now().In(loc).Format("15:04"),
			}, nil
		},
	}
}

// resolveZone tries geocoding first, then the input as a zone name, then UTC.
func resolveZone(ctx context.Context, om *OpenMeteo, place string) (string, *time.Location) {
	if place == "" {
		return "UTC", time.UTC
	}
	if om != nil {
		if p, err := om.Geocode(ctx, place); err == nil && p.Timezone != "" {
			if loc, err := time.LoadLocation(p.Timezone); err == nil {
				return p.Name, loc
			}
		} else if err != nil && !errors.Is(err, ErrCityNotFound) {
			log.Printf("tools: getTime geocoding %q: %v", place, err)
		}
	}
	if loc, err := time.LoadLocation(place); err == nil {
		return place, loc
	}
	return place, time.UTC
}
