package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int           { return &n }

func TestBuildSearchFilter_Default(t *testing.T) {
	filter := buildSearchFilter(SearchParams{})

	assert.Equal(t, bson.M{"is_published": true}, filter)
}

func TestBuildSearchFilter_TextSearch(t *testing.T) {
	filter := buildSearchFilter(SearchParams{Search: strPtr("villa")})

	or, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)

	title := or[0].(bson.M)["title"].(primitive.Regex)
	assert.Equal(t, "villa", title.Pattern)
	assert.Equal(t, "i", title.Options)

	desc := or[1].(bson.M)["description"].(primitive.Regex)
	assert.Equal(t, "villa", desc.Pattern)
}

func TestBuildSearchFilter_TextSearchQuotesRegexMeta(t *testing.T) {
	filter := buildSearchFilter(SearchParams{Search: strPtr("a.b*c")})

	or := filter["$or"].(bson.A)
	title := or[0].(bson.M)["title"].(primitive.Regex)
	assert.Equal(t, `a\.b\*c`, title.Pattern, "regex metacharacters in user input must be escaped")
}

func TestBuildSearchFilter_CityAndNeighborhood(t *testing.T) {
	filter := buildSearchFilter(SearchParams{
		City:         strPtr("Libreville"),
		Neighborhood: strPtr("Glass"),
	})

	city := filter["city"].(primitive.Regex)
	assert.Equal(t, "Libreville", city.Pattern)
	assert.Equal(t, "i", city.Options)

	hood := filter["neighborhood"].(primitive.Regex)
	assert.Equal(t, "Glass", hood.Pattern)
}

func TestBuildSearchFilter_ListingTypeExact(t *testing.T) {
	filter := buildSearchFilter(SearchParams{ListingType: strPtr("rent")})

	assert.Equal(t, "rent", filter["listing_type"], "listing_type must match exactly, not by regex")
}

func TestBuildSearchFilter_PriceRangeInclusive(t *testing.T) {
	filter := buildSearchFilter(SearchParams{
		PriceMin: floatPtr(1000),
		PriceMax: floatPtr(5000),
	})

	assert.Equal(t, bson.M{"$gte": 1000.0, "$lte": 5000.0}, filter["price"])
}

func TestBuildSearchFilter_OpenEndedRanges(t *testing.T) {
	filter := buildSearchFilter(SearchParams{
		SurfaceMin: intPtr(50),
		RoomsMax:   intPtr(4),
	})

	assert.Equal(t, bson.M{"$gte": 50}, filter["surface"])
	assert.Equal(t, bson.M{"$lte": 4}, filter["rooms"])
	assert.NotContains(t, filter, "price")
}

func TestBuildSearchFilter_BoundingBox(t *testing.T) {
	filter := buildSearchFilter(SearchParams{
		Lat:    floatPtr(0.45),
		Lon:    floatPtr(9.45),
		Radius: floatPtr(10),
	})

	latRange := 10.0 / 111.0
	lonRange := 10.0 / (111.0 * (0.45 / 90.0))

	lat := filter["lat"].(bson.M)
	assert.InDelta(t, 0.45-latRange, lat["$gte"].(float64), 1e-9)
	assert.InDelta(t, 0.45+latRange, lat["$lte"].(float64), 1e-9)

	lon := filter["lon"].(bson.M)
	assert.InDelta(t, 9.45-lonRange, lon["$gte"].(float64), 1e-9)
	assert.InDelta(t, 9.45+lonRange, lon["$lte"].(float64), 1e-9)
}

func TestBuildSearchFilter_BoundingBoxAtEquator(t *testing.T) {
	// lat == 0 would divide by zero; the lon range falls back to the lat range.
	filter := buildSearchFilter(SearchParams{
		Lat:    floatPtr(0),
		Lon:    floatPtr(9.45),
		Radius: floatPtr(10),
	})

	latRange := 10.0 / 111.0
	lon := filter["lon"].(bson.M)
	assert.InDelta(t, 9.45-latRange, lon["$gte"].(float64), 1e-9)
	assert.InDelta(t, 9.45+latRange, lon["$lte"].(float64), 1e-9)
}

func TestBuildSearchFilter_GeoRequiresAllThreeParams(t *testing.T) {
	filter := buildSearchFilter(SearchParams{
		Lat: floatPtr(0.45),
		Lon: floatPtr(9.45),
		// Radius absent
	})

	assert.NotContains(t, filter, "lat")
	assert.NotContains(t, filter, "lon")
}

func TestBuildSearchFilter_EmptyStringsIgnored(t *testing.T) {
	filter := buildSearchFilter(SearchParams{
		Search:      strPtr(""),
		City:        strPtr(""),
		ListingType: strPtr(""),
	})

	assert.Equal(t, bson.M{"is_published": true}, filter)
}

func TestBuildSearchFilter_CombinedFilters(t *testing.T) {
	filter := buildSearchFilter(SearchParams{
		Search:      strPtr("appartement"),
		City:        strPtr("Port-Gentil"),
		ListingType: strPtr("sale"),
		PriceMax:    floatPtr(100000),
		RoomsMin:    intPtr(2),
	})

	assert.Equal(t, true, filter["is_published"])
	assert.Contains(t, filter, "$or")
	assert.Contains(t, filter, "city")
	assert.Equal(t, "sale", filter["listing_type"])
	assert.Equal(t, bson.M{"$lte": 100000.0}, filter["price"])
	assert.Equal(t, bson.M{"$gte": 2}, filter["rooms"])
}
