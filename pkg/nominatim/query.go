package nominatim

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
)

// Query is one ward to look up, from most to least specific.
type Query struct {
	Ward     string
	District string
	Province string
}

// FreeText joins the query parts and the country name into the single-line
// form the search endpoint expects, e.g. "Phường 1, Quận 3, Hồ Chí Minh,
// Việt Nam". The result is NFC-normalised so that precomposed and
// decomposed Vietnamese diacritics produce the same request.
func (q Query) FreeText(country string) string {
	parts := []string{q.Ward, q.District, q.Province, country}
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return norm.NFC.String(strings.Join(nonEmpty, ", "))
}

// candidate mirrors the fields of a jsonv2 search result that we read.
type candidate struct {
	Lat         *coordinate `json:"lat"`
	Lon         *coordinate `json:"lon"`
	DisplayName string      `json:"display_name"`
}

// coordinate accepts both "21.0245" and 21.0245. Nominatim sends strings,
// some compatible servers send numbers.
type coordinate float64

func (c *coordinate) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return eris.New("nominatim: null coordinate")
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return eris.Wrap(err, "nominatim: decode coordinate string")
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return eris.Wrapf(err, "nominatim: parse coordinate %q", s)
	}
	*c = coordinate(v)
	return nil
}
