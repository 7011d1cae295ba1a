package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koban-io/koban/internal/types"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.Month
		wantErr bool
	}{
		{name: "valid month", input: "2024-05", want: types.NewMonth(2024, time.May)},
		{name: "january", input: "2024-01", want: types.NewMonth(2024, time.January)},
		{name: "with day", input: "2024-05-12", wantErr: true},
		{name: "garbage", input: "not-a-month", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseMonth(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want))
		})
	}
}

func TestMonthString(t *testing.T) {
	assert.Equal(t, "2024-05", types.NewMonth(2024, time.May).String())
	assert.Equal(t, "2024-12", types.NewMonth(2024, time.December).String())
	assert.Equal(t, "0999-01", types.NewMonth(999, time.January).String())
}

func TestMonthAsMapKey(t *testing.T) {
	in := map[types.Month][]int{
		types.NewMonth(2024, time.May):  {1, 2},
		types.NewMonth(2024, time.June): {3},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"2024-05"`)
	assert.Contains(t, string(data), `"2024-06"`)

	var out map[types.Month][]int
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestMonthAddDate(t *testing.T) {
	may := types.NewMonth(2024, time.May)

	assert.Equal(t, "2024-06", may.AddDate(0, 1).String())
	assert.Equal(t, "2024-04", may.AddDate(0, -1).String())
	assert.Equal(t, "2023-12", may.AddDate(0, -5).String())
	assert.Equal(t, "2025-05", may.AddDate(1, 0).String())
}

func TestMonthContains(t *testing.T) {
	may := types.NewMonth(2024, time.May)

	assert.True(t, may.Contains(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, may.Contains(time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, may.Contains(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, may.Contains(time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC)))
}

func TestMonthOrdering(t *testing.T) {
	april := types.NewMonth(2024, time.April)
	may := types.NewMonth(2024, time.May)

	assert.True(t, april.Before(may))
	assert.True(t, may.After(april))
	assert.False(t, may.Before(may))
	assert.True(t, may.Equal(may))
}
