package nominatim

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_FreeText(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{
			name: "all parts",
			q:    Query{Ward: "Phường 1", District: "Quận 3", Province: "Hồ Chí Minh"},
			want: "Phường 1, Quận 3, Hồ Chí Minh, Việt Nam",
		},
		{
			name: "trims whitespace",
			q:    Query{Ward: "  Xã Tân Phú ", District: "Huyện Đồng Phú", Province: " Bình Phước"},
			want: "Xã Tân Phú, Huyện Đồng Phú, Bình Phước, Việt Nam",
		},
		{
			name: "skips empty district",
			q:    Query{Ward: "Phường Hàng Bạc", Province: "Hà Nội"},
			want: "Phường Hàng Bạc, Hà Nội, Việt Nam",
		},
		{
			// "Hà" with a combining grave accent (U+0300) normalises to the precomposed form.
			name: "normalises decomposed diacritics",
			q:    Query{Ward: "Phường Ha\u0300ng Bạc", Province: "Ha\u0300 Nội"},
			want: "Phường Hàng Bạc, Hà Nội, Việt Nam",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.FreeText(DefaultCountryName))
		})
	}
}

func TestCoordinate_UnmarshalJSON(t *testing.T) {
	var got struct {
		A coordinate `json:"a"`
		B coordinate `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"10.5","b":-3.25}`), &got))
	assert.InDelta(t, 10.5, float64(got.A), 1e-9)
	assert.InDelta(t, -3.25, float64(got.B), 1e-9)
}

func TestCoordinate_UnmarshalJSONRejects(t *testing.T) {
	for _, raw := range []string{`"abc"`, `""`, `true`} {
		var c coordinate
		assert.Error(t, c.UnmarshalJSON([]byte(raw)), raw)
	}
}

func TestCandidate_MissingCoordinatesStayNil(t *testing.T) {
	var got []candidate
	require.NoError(t, json.Unmarshal([]byte(`[{"display_name":"x"}]`), &got))
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Lat)
	assert.Nil(t, got[0].Lon)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "transient", StatusTransient.String())
	assert.Equal(t, "resolved", StatusResolved.String())
	assert.Equal(t, "no_match", StatusNoMatch.String())
	assert.Equal(t, "rate_limited", StatusRateLimited.String())
	assert.Equal(t, "unknown", Status(42).String())
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(0, 0))
	assert.True(t, ValidCoordinates(-90, 180))
	assert.False(t, ValidCoordinates(90.01, 0))
	assert.False(t, ValidCoordinates(0, -180.5))
}
