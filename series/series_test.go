package series

import (
	"errors"
	"math"
	"math/rand"
	"regexp"
	"testing"
	"time"

	"neonx-web/errs"
	"neonx-web/models"
)

type seqSource struct {
	vals []float64
	i    int
}

func (s *seqSource) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func TestGenerate_LengthAndBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for _, tf := range Presets {
		t.Run(tf.Name, func(t *testing.T) {
			data, err := Generate(tf.PointCount, tf.MinPrice, tf.MaxPrice, rnd)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if len(data) != tf.PointCount {
				t.Fatalf("expected %d points, got %d", tf.PointCount, len(data))
			}
			for i, v := range data {
				if v < tf.MinPrice || v > tf.MaxPrice {
					t.Fatalf("point %d = %g outside [%g, %g]", i, v, tf.MinPrice, tf.MaxPrice)
				}
			}
		})
	}
}

func TestGenerate_Scenario24h(t *testing.T) {
	data, err := Generate(24, 0.00011, 0.00013, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	sum, err := Summarize(data)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	const delta = Epsilon
	if sum.High > 0.00013+delta {
		t.Errorf("high %g above bound", sum.High)
	}
	if sum.Low < 0.00011-delta {
		t.Errorf("low %g below bound", sum.Low)
	}
	for i, v := range data {
		if v < 0.000105 || v > 0.000135 {
			t.Errorf("point %d = %g outside tolerance band", i, v)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(720, 0.00009, 0.00015, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(720, 0.00009, 0.00015, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs: %g vs %g", i, a[i], b[i])
		}
	}
}

func TestGenerate_FirstPointStepsFromMidpoint(t *testing.T) {
	data, err := Generate(1, 0.0001, 0.0002, &seqSource{vals: []float64{0.5}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	min, max := 0.0001, 0.0002
	if mid := (min + max) / 2; !closeTo(data[0], mid) {
		t.Errorf("expected %g with a zero step, got %g", mid, data[0])
	}
}

func TestGenerate_InvalidArguments(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	testCases := []struct {
		name     string
		count    int
		min, max float64
		rnd      Source
	}{
		{"Zero count", 0, 0.0001, 0.0002, rnd},
		{"Negative count", -3, 0.0001, 0.0002, rnd},
		{"Min equals max", 10, 0.0001, 0.0001, rnd},
		{"Min above max", 10, 0.0003, 0.0002, rnd},
		{"Zero min", 10, 0, 0.0002, rnd},
		{"Nil source", 10, 0.0001, 0.0002, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Generate(tc.count, tc.min, tc.max, tc.rnd)
			if !errors.Is(err, errs.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func closeTo(got, want float64) bool {
	return math.Abs(got-want) <= 1e-18
}

func TestStep_SoftClamp(t *testing.T) {
	min, max := 0.00011, 0.00013

	// Push above max, then land half an offset below it.
	got := Step(max, min, max, &seqSource{vals: []float64{0.99, 0.5}})
	if want := max - 0.5*ClampOffset; !closeTo(got, want) {
		t.Errorf("overflow: expected %g, got %g", want, got)
	}

	// Push below min, then land a fifth of an offset above it.
	got = Step(min, min, max, &seqSource{vals: []float64{0.0, 0.2}})
	if want := min + 0.2*ClampOffset; !closeTo(got, want) {
		t.Errorf("underflow: expected %g, got %g", want, got)
	}
}

func TestLabels_Hourly(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	labels, err := Labels(24, now)
	if err != nil {
		t.Fatalf("Labels: %v", err)
	}
	if len(labels) != 24 {
		t.Fatalf("expected 24 labels, got %d", len(labels))
	}
	re := regexp.MustCompile(`^\d{1,2}:00$`)
	for i, l := range labels {
		if !re.MatchString(l) {
			t.Errorf("label %d %q does not match H:00", i, l)
		}
	}
	if labels[23] != "15:00" {
		t.Errorf("expected newest label 15:00, got %q", labels[23])
	}
	if labels[0] != "16:00" {
		t.Errorf("expected oldest label 16:00, got %q", labels[0])
	}
}

func TestLabels_DayHour(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	labels, err := Labels(168, now)
	if err != nil {
		t.Fatalf("Labels: %v", err)
	}
	if got := labels[len(labels)-1]; got != "3/10 15:00" {
		t.Errorf("expected newest label 3/10 15:00, got %q", got)
	}
	if got := labels[0]; got != "3/3 16:00" {
		t.Errorf("expected oldest label 3/3 16:00, got %q", got)
	}
}

func TestLabels_DayBoundariesOnly(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	labels, err := Labels(720, now)
	if err != nil {
		t.Fatalf("Labels: %v", err)
	}
	if len(labels) != 720 {
		t.Fatalf("expected 720 labels, got %d", len(labels))
	}
	nonEmpty := 0
	for i, l := range labels {
		ts := now.Add(-time.Duration(len(labels)-1-i) * time.Hour)
		if ts.Hour() == 0 && l == "" {
			t.Errorf("label %d at midnight is empty", i)
		}
		if ts.Hour() != 0 && l != "" {
			t.Errorf("label %d at hour %d should be empty, got %q", i, ts.Hour(), l)
		}
		if l != "" {
			nonEmpty++
		}
	}
	if nonEmpty != 30 {
		t.Errorf("expected 30 day labels, got %d", nonEmpty)
	}
}

func TestLabels_InvalidCount(t *testing.T) {
	if _, err := Labels(0, time.Now()); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	s := models.PriceSeries{0.00012, 0.00015, 0.00010, 0.000125, 0.00013}
	sum, err := Summarize(s)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Current != 0.00013 {
		t.Errorf("current: got %g", sum.Current)
	}
	if sum.High != 0.00015 {
		t.Errorf("high: got %g", sum.High)
	}
	if sum.Low != 0.00010 {
		t.Errorf("low: got %g", sum.Low)
	}
	want := (0.00013 - 0.000125) / 0.000125 * 100
	if math.Abs(sum.ChangePercent-want) > 1e-9 {
		t.Errorf("change: expected %g, got %g", want, sum.ChangePercent)
	}
}

func TestSummarize_ShortSeries(t *testing.T) {
	sum, err := Summarize(models.PriceSeries{0.00012})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.ChangePercent != 0 {
		t.Errorf("expected 0%% change for a single point, got %g", sum.ChangePercent)
	}
	if sum.High != 0.00012 || sum.Low != 0.00012 {
		t.Errorf("unexpected high/low: %+v", sum)
	}

	if _, err := Summarize(nil); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty series, got %v", err)
	}
}

func TestSummarize_MatchesGenerated(t *testing.T) {
	data, err := Generate(2160, 0.00005, 0.00015, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	sum, err := Summarize(data)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	hi, lo := math.Inf(-1), math.Inf(1)
	for _, v := range data {
		hi = math.Max(hi, v)
		lo = math.Min(lo, v)
	}
	if sum.High != hi || sum.Low != lo {
		t.Errorf("expected high/low %g/%g, got %g/%g", hi, lo, sum.High, sum.Low)
	}
}

func TestFormatting(t *testing.T) {
	testCases := []struct {
		name string
		got  string
		want string
	}{
		{"Price", FormatPrice(0.00012), "$0.00012000"},
		{"Price rounding", FormatPrice(0.000123456789), "$0.00012346"},
		{"Positive change", FormatChange(1.234), "+1.23%"},
		{"Zero change", FormatChange(0), "+0.00%"},
		{"Negative change", FormatChange(-0.5), "-0.50%"},
		{"Up direction", Direction(0), DirectionUp},
		{"Down direction", Direction(-0.01), DirectionDown},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, tc.got)
			}
		})
	}
}

func TestController_SelectTimeframe(t *testing.T) {
	panel := &Panel{}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c := NewController(panel, panel, rand.New(rand.NewSource(5)), WithClock(func() time.Time { return now }))

	tf, sum, err := c.SelectTimeframe("7d")
	if err != nil {
		t.Fatalf("SelectTimeframe: %v", err)
	}
	if tf.Name != "7d" {
		t.Errorf("expected 7d, got %s", tf.Name)
	}
	if len(panel.Chart.Labels) != 168 || len(panel.Chart.Data) != 168 {
		t.Fatalf("expected 168 labels and points, got %d/%d", len(panel.Chart.Labels), len(panel.Chart.Data))
	}
	if panel.Chart.Data[167] != sum.Current {
		t.Errorf("chart and summary disagree on current price")
	}
	if panel.Display != Display(sum) {
		t.Errorf("display fields %+v do not match summary %+v", panel.Display, sum)
	}
}

func TestController_UnknownTimeframeFallsBack(t *testing.T) {
	panel := &Panel{}
	c := NewController(panel, panel, rand.New(rand.NewSource(5)))

	tf, _, err := c.SelectTimeframe("1y")
	if err != nil {
		t.Fatalf("SelectTimeframe: %v", err)
	}
	if tf.Name != DefaultTimeframe || len(panel.Chart.Data) != 24 {
		t.Errorf("expected fallback to %s with 24 points, got %s with %d", DefaultTimeframe, tf.Name, len(panel.Chart.Data))
	}
}

func TestNewTimeframes(t *testing.T) {
	if _, err := NewTimeframes([]models.Timeframe{{Name: "7d", PointCount: 168, MinPrice: 0.0001, MaxPrice: 0.0002}}); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("expected missing default to fail, got %v", err)
	}
	if _, err := NewTimeframes([]models.Timeframe{{Name: "24h", PointCount: 24, MinPrice: 0.0002, MaxPrice: 0.0001}}); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("expected inverted bounds to fail, got %v", err)
	}

	tfs, err := NewTimeframes(append([]models.Timeframe{{Name: "1h", PointCount: 60, MinPrice: 0.0001, MaxPrice: 0.0002}}, Presets...))
	if err != nil {
		t.Fatalf("NewTimeframes: %v", err)
	}
	names := tfs.Names()
	want := []string{"24h", "7d", "30d", "all", "1h"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}
