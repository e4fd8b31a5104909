package overpass

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/geoagent/geoagent/internal/geo"
)

// queryBuilder composes Overpass QL union queries.
type queryBuilder struct {
	buf      strings.Builder
	elements []string
}

func newQuery(timeoutSeconds int) *queryBuilder {
	b := &queryBuilder{}
	fmt.Fprintf(&b.buf, "[out:json][timeout:%d];", timeoutSeconds)
	return b
}

// around adds node and way statements within radius meters of c, matching every
// value of one tag key. A key with no values only requires the key to exist.
func (b *queryBuilder) around(c geo.Coordinate, radius float64, key string, values []string) *queryBuilder {
	filter := fmt.Sprintf("[%q]", key)
	if len(values) > 0 {
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = regexp.QuoteMeta(v)
		}
		filter = fmt.Sprintf("[%q~\"^(%s)$\"]", key, strings.Join(quoted, "|"))
	}
	for _, kind := range []string{"node", "way"} {
		b.elements = append(b.elements,
			fmt.Sprintf("%s(around:%.0f,%.6f,%.6f)[\"name\"]%s;", kind, radius, c.Lat, c.Lon, filter))
	}
	return b
}

// build closes the union. Ways are reported by their center point.
func (b *queryBuilder) build() string {
	b.buf.WriteString("(")
	for _, e := range b.elements {
		b.buf.WriteString(e)
	}
	b.buf.WriteString(");out center tags;")
	return b.buf.String()
}

func sortedKeys(tags map[string][]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
