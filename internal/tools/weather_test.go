package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/copiloto/internal/llm"
)

// fakeOpenMeteo serves both APIs. Only "Madrid" geocodes.
func fakeOpenMeteo(t *testing.T) *OpenMeteo {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("count"))
		assert.Equal(t, "es", r.URL.Query().Get("language"))
		if r.URL.Query().Get("name") != "Madrid" {
			w.Write([]byte(`{"generationtime_ms":0.5}`))
			return
		}
		w.Write([]byte(`{"results":[{"name":"Madrid","country":"España","latitude":40.4,"longitude":-3.7,"timezone":"Europe/Madrid"}]}`))
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "40.4", r.URL.Query().Get("latitude"))
		w.Write([]byte(`{"current":{"temperature_2m":21.6,"weather_code":2,"wind_speed_10m":11.3}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewOpenMeteo(srv.URL+"/search", srv.URL+"/forecast", time.Second)
}

func TestWeatherLabel(t *testing.T) {
	tests := map[int]string{
		0:  "despejado",
		1:  "parcialmente nublado",
		3:  "parcialmente nublado",
		45: "niebla",
		48: "niebla",
		51: "llovizna",
		57: "llovizna",
		61: "lluvia",
		82: "lluvia",
		71: "nieve",
		86: "nieve",
		95: "tormenta",
		99: "tormenta",
		4:  "condiciones variables",
		70: "condiciones variables",
	}
	for code, want := range tests {
		assert.Equal(t, want, WeatherLabel(code), "code %d", code)
	}
}

func TestWeatherTool(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(WeatherTool(fakeOpenMeteo(t))))

	res := r.Invoke(context.Background(), llm.ToolCall{ID: "w1", Name: "getWeather", Arguments: map[string]any{"city": "Madrid"}})
	assert.Equal(t, "w1", res.ToolCallID)
	assert.JSONEq(t, `{"city":"Madrid, España","temperature":22,"condition":"parcialmente nublado","windSpeed":11.3,"timezone":"Europe/Madrid"}`, res.Content)
}

func TestWeatherTool_CityNotFound(t *testing.T) {
	om := fakeOpenMeteo(t)
	_, err := om.Geocode(context.Background(), "Zzyzxville")
	assert.ErrorIs(t, err, ErrCityNotFound)

	r := NewRegistry()
	require.NoError(t, r.Register(WeatherTool(om)))
	res := r.Invoke(context.Background(), llm.ToolCall{ID: "w2", Name: "getWeather", Arguments: map[string]any{"city": "Zzyzxville"}})
	assert.JSONEq(t, `{"error":"Ciudad no encontrada"}`, res.Content)
}

func TestOpenMeteo_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	om := NewOpenMeteo(srv.URL, srv.URL, time.Second)
	_, err := om.Geocode(context.Background(), "Madrid")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCityNotFound)
}

func TestTimeTool(t *testing.T) {
	fixed := time.Date(2026, 1, 15, 12, 30, 0, 0, time.UTC)
	r := NewRegistry()
	require.NoError(t, r.Register(TimeTool(fakeOpenMeteo(t), func() time.Time { return fixed })))

	tests := []struct {
		place string
		want  string
	}{
		{"Madrid", `{"place":"Madrid, España","timezone":"Europe/Madrid","time":"13:30"}`},
		{"America/Lima", `{"place":"America/Lima","timezone":"America/Lima","time":"07:30"}`},
		{"", `{"place":"UTC","timezone":"UTC","time":"12:30"}`},
		{"Nowhere/Land", `{"place":"Nowhere/Land","timezone":"UTC","time":"12:30"}`},
	}
	for _, tt := range tests {
		res := r.Invoke(context.Background(), llm.ToolCall{ID: "t", Name: "getTime", Arguments: map[string]any{"place": tt.place}})
		assert.JSONEq(t, tt.want, res.Content, tt.place)
	}
}
