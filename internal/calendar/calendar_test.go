package calendar

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   time.Time
		wantOK bool
	}{
		{"solar slash", "1403/01/01", date(2024, time.March, 20), true},
		{"solar dash unpadded", "1402-1-1", date(2023, time.March, 21), true},
		{"solar persian digits", "۱۴۰۳/۰۱/۰۱", date(2024, time.March, 20), true},
		{"solar leap day", "1399/12/30", date(2021, time.March, 20), true},
		{"gregorian iso", "2024-03-20", date(2024, time.March, 20), true},
		{"gregorian low year", "1299/05/04", date(1299, time.May, 4), true},
		{"gregorian dotted", "20.03.2024", date(2024, time.March, 20), true},
		{"structured value", date(2024, time.July, 1), date(2024, time.July, 1), true},
		{"invalid month", "1403/13/01", time.Time{}, false},
		{"garbage", "not a date", time.Time{}, false},
		{"empty", "", time.Time{}, false},
		{"nil", nil, time.Time{}, false},
		{"number", 45000, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseFlexibleDate(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
			}
		})
	}
}

func TestFormatAsSolar(t *testing.T) {
	assert.Equal(t, "1403/01/01", FormatAsSolar(date(2024, time.March, 20)))
	assert.Equal(t, "1402/12/29", FormatAsSolar(date(2024, time.March, 19)))
	assert.Equal(t, "", FormatAsSolar(nil))
	assert.Equal(t, "", FormatAsSolar("garbage"))
	assert.Equal(t, "", FormatAsSolar(time.Time{}))
}

func TestSolarRoundTrip(t *testing.T) {
	start := date(2019, time.January, 1)
	for i := 0; i < 3*366; i += 7 {
		d := start.AddDate(0, 0, i)
		t.Run(d.Format("2006-01-02"), func(t *testing.T) {
			solar := FormatAsSolar(d)
			require.NotEmpty(t, solar)
			back, ok := ParseFlexibleDate(solar)
			require.True(t, ok, "parse %s", solar)
			assert.True(t, d.Equal(back), "%s -> %s -> %s", d, solar, back)
		})
	}
}

func TestSolarWindow(t *testing.T) {
	late := date(2320, time.June, 1)
	solar := FormatAsSolar(late)
	assert.Equal(t, "1699", solar[:4])
	back, ok := ParseFlexibleDate(solar)
	require.True(t, ok)
	assert.True(t, late.Equal(back), "%s -> %s -> %s", late, solar, back)

	first, ok := ParseFlexibleDate("1300/01/01")
	require.True(t, ok)
	assert.Equal(t, 1921, first.Year())

	gregorian, ok := ParseFlexibleDate("1700/01/01")
	require.True(t, ok)
	assert.True(t, date(1700, time.January, 1).Equal(gregorian), "years from SolarCeiling on are Gregorian")
}

func TestDaysBetween(t *testing.T) {
	a := date(2024, time.March, 20)
	assert.Equal(t, 7, DaysBetween(a, a.AddDate(0, 0, 7)))
	assert.Equal(t, -3, DaysBetween(a, a.AddDate(0, 0, -3)))
	assert.Equal(t, 0, DaysBetween(a, a.Add(5*time.Hour)))
}

func ExampleFormatAsSolar() {
	fmt.Println(FormatAsSolar(time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)))
	// Output: 1403/01/01
}
