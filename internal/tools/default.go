package tools

import "time"

// NewDefault returns a registry with getWeather, getTime and calc.
func NewDefault(om *OpenMeteo) *Registry {
	r := NewRegistry()
	for _, t := range []Tool{WeatherTool(om), TimeTool(om, time.Now), CalcTool()} {
		if err := r.Register(t); err != nil {
			panic(err) // static schemas; only a programming error gets here
		}
	}
	return r
}
