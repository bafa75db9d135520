package chart

import (
	"reflect"
	"testing"

	"github.com/goccy/go-json"
)

func TestMergeOptions_ZeroFieldsKeepBase(t *testing.T) {
	base := Options{
		Title:   "Base",
		Width:   800,
		Height:  400,
		Tooltip: TooltipOptions{Fixed: Bool(true), X: 10, Y: 20},
		XAxis:   AxisOptions{Title: "Percentile", Min: Float(0), Max: Float(100), Ordinal: true},
		Series:  []SeriesConfig{{Name: "S", Data: []DataPoint{{X: 1, Y: 2}}}},
	}
	got := MergeOptions(base, Options{Width: 300})

	if got.Title != "Base" || got.Height != 400 || got.Width != 300 {
		t.Errorf("merged = %+v", got)
	}
	if !reflect.DeepEqual(got.Tooltip, base.Tooltip) || got.XAxis.Title != "Percentile" || !got.XAxis.Ordinal {
		t.Errorf("nested options lost: %+v %+v", got.Tooltip, got.XAxis)
	}
	if len(got.Series) != 1 || got.Series[0].Name != "S" {
		t.Errorf("series lost: %+v", got.Series)
	}
}

func TestMergeOptions_AppendsLoadHooks(t *testing.T) {
	var calls []string
	base := Options{Events: Events{Load: []LoadFunc{func(*Chart) { calls = append(calls, "base") }}}}
	overlay := Options{Events: Events{Load: []LoadFunc{func(*Chart) { calls = append(calls, "overlay") }}}}

	got := MergeOptions(base, overlay)
	for _, fn := range got.Events.Load {
		fn(nil)
	}
	if want := []string{"base", "overlay"}; !reflect.DeepEqual(calls, want) {
		t.Errorf("hooks ran %v, want %v", calls, want)
	}
	if len(base.Events.Load) != 1 || len(overlay.Events.Load) != 1 {
		t.Errorf("inputs mutated")
	}
}

func TestMergeOptions_DoesNotAliasSeries(t *testing.T) {
	base := Options{Series: []SeriesConfig{{Name: "S", Data: []DataPoint{{X: 1, Y: 2}}}}}
	got := MergeOptions(base)
	got.Series[0].Data[0].Selected = true
	if base.Series[0].Data[0].Selected {
		t.Errorf("merged series shares data with base")
	}
}

func TestMergeOptions_OverlaySeriesReplace(t *testing.T) {
	base := Options{Series: []SeriesConfig{{Name: "A"}, {Name: "B"}}}
	got := MergeOptions(base, Options{Series: []SeriesConfig{{Name: "C"}}})
	if len(got.Series) != 1 || got.Series[0].Name != "C" {
		t.Errorf("series = %+v, want only C", got.Series)
	}
}

func TestDataPoint_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    DataPoint
		wantErr bool
	}{
		{"pair", `[12.5, 3]`, DataPoint{X: 12.5, Y: 3}, false},
		{"object", `{"x": 40, "y": 7.25, "name": "Orange"}`, DataPoint{X: 40, Y: 7.25, Name: "Orange"}, false},
		{"selected", `{"x": 1, "y": 2, "selected": true}`, DataPoint{X: 1, Y: 2, Selected: true}, false},
		{"short pair", `[1]`, DataPoint{}, true},
		{"garbage", `"nope"`, DataPoint{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got DataPoint
			err := json.Unmarshal([]byte(tc.in), &got)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestSeriesConfig_DecodesChartConfig(t *testing.T) {
	raw := `{
		"name": "Values",
		"type": "scatter",
		"color": "darkred",
		"enableMouseTracking": true,
		"tooltip": {"pointFormat": "{point.name}", "valueDecimals": 1},
		"data": [{"x": 25, "y": 1.5, "name": "Dane"}, [75, 3]]
	}`
	var s SeriesConfig
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Type != SeriesScatter || !s.MouseTracking() || *s.Tooltip.ValueDecimals != 1 {
		t.Errorf("decoded = %+v", s)
	}
	if len(s.Data) != 2 || s.Data[0].Name != "Dane" || s.Data[1].X != 75 {
		t.Errorf("data = %+v", s.Data)
	}
}

func TestPresetOptions(t *testing.T) {
	large, err := PresetOptions(PresetLarge)
	if err != nil {
		t.Fatalf("large: %v", err)
	}
	if large.Tooltip.Fixed == nil || !*large.Tooltip.Fixed || large.XAxis.TickInterval != 5 {
		t.Errorf("large preset = %+v", large)
	}
	small, err := PresetOptions(PresetSmall)
	if err != nil {
		t.Fatalf("small: %v", err)
	}
	if small.Height != 0 || small.AspectRatio != 10.0/16.0 || *small.ShowLegend {
		t.Errorf("small preset = %+v", small)
	}
	if _, err := PresetOptions("huge"); err == nil {
		t.Errorf("unknown preset accepted")
	}
}
