package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{name: "date only", input: `"2010-05-01"`, want: NewDate(2010, time.May, 1)},
		{name: "rfc3339", input: `"2010-05-01T08:30:00+07:00"`, want: NewDate(2010, time.May, 1)},
		{name: "empty", input: `""`, want: Date{}},
		{name: "invalid", input: `"01/05/2010"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(d.Time), "got %v; want %v", d, tt.want)
		})
	}

	out, err := json.Marshal(NewDate(2001, time.December, 31))
	require.NoError(t, err)
	assert.Equal(t, `"2001-12-31"`, string(out))
}

func TestPage(t *testing.T) {
	p := Page{Page: 3, Limit: 10}
	assert.Equal(t, 20, p.Offset())

	start, end := p.Bounds(25)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	start, end = Page{Page: 5, Limit: 10}.Bounds(25)
	assert.Equal(t, 25, start)
	assert.Equal(t, 25, end)

	assert.Equal(t, PageInfo{Current: 3, Total: 25, TotalPages: 3}, NewPageInfo(p, 25))
	assert.Equal(t, PageInfo{Current: 1, Total: 0, TotalPages: 0}, NewPageInfo(Page{Limit: 10}, 0))
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Budi", CleanString("  Budi "))
	assert.Equal(t, "budi_01", CleanString(" Budi_01\t", true))
}
