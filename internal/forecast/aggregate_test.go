package forecast

import (
	"testing"
	"time"
)

func TestMedianOddCount(t *testing.T) {
	got := median([]float64{30, 10, 20})
	if got == nil || *got != 20 {
		t.Fatalf("median = %v, want 20", got)
	}
}

func TestMedianEvenCount(t *testing.T) {
	got := median([]float64{40, 10, 20, 30})
	if got == nil || *got != 25 {
		t.Fatalf("median = %v, want 25", got)
	}
}

func TestMedianEmpty(t *testing.T) {
	if got := median(nil); got != nil {
		t.Fatalf("median of empty = %v, want nil", got)
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	vals := []float64{3, 1, 2}
	median(vals)
	if vals[0] != 3 || vals[1] != 1 || vals[2] != 2 {
		t.Fatalf("input mutated: %v", vals)
	}
}

func TestAggregateAirQualityBucketsByDate(t *testing.T) {
	day1 := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	samples := []HourlySample{
		{Time: day1.Add(1 * time.Hour), PM25: fptr(10), USAQI: fptr(40)},
		{Time: day1.Add(2 * time.Hour), PM25: fptr(20), USAQI: fptr(60)},
		{Time: day1.Add(3 * time.Hour), PM25: fptr(90), USAQI: fptr(50)},
		{Time: day2.Add(1 * time.Hour), PM25: fptr(5), USAQI: fptr(15)},
	}

	byDate := AggregateAirQuality(samples)
	if len(byDate) != 2 {
		t.Fatalf("got %d dates, want 2", len(byDate))
	}

	d1 := byDate[day1]
	if d1.PM25 == nil || *d1.PM25 != 20 {
		t.Fatalf("day1 pm2_5 = %v, want 20", d1.PM25)
	}
	if d1.USAQI == nil || *d1.USAQI != 50 {
		t.Fatalf("day1 us_aqi = %v, want 50", d1.USAQI)
	}

	d2 := byDate[day2]
	if d2.PM25 == nil || *d2.PM25 != 5 {
		t.Fatalf("day2 pm2_5 = %v, want 5", d2.PM25)
	}
}

func TestAggregateAirQualitySkipsNullSamples(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	samples := []HourlySample{
		{Time: day.Add(1 * time.Hour), PM25: nil, USAQI: fptr(30)},
		{Time: day.Add(2 * time.Hour), PM25: fptr(12), USAQI: nil},
		{Time: day.Add(3 * time.Hour), PM25: nil, USAQI: nil},
	}

	byDate := AggregateAirQuality(samples)
	d := byDate[day]
	if d.PM25 == nil || *d.PM25 != 12 {
		t.Fatalf("pm2_5 = %v, want 12", d.PM25)
	}
	if d.USAQI == nil || *d.USAQI != 30 {
		t.Fatalf("us_aqi = %v, want 30", d.USAQI)
	}
}

func TestAggregateAirQualityAllNullDay(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	byDate := AggregateAirQuality([]HourlySample{
		{Time: day.Add(1 * time.Hour)},
		{Time: day.Add(2 * time.Hour)},
	})

	d, ok := byDate[day]
	if !ok {
		t.Fatal("date with all-null samples should still appear in the join map")
	}
	if d.PM25 != nil || d.USAQI != nil {
		t.Fatalf("all-null day aggregated to %v/%v, want nil/nil", d.PM25, d.USAQI)
	}
}

func TestAggregateAirQualityEmpty(t *testing.T) {
	if got := AggregateAirQuality(nil); got != nil {
		t.Fatalf("AggregateAirQuality(nil) = %v, want nil", got)
	}
}
