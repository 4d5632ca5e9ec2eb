// Package dataset defines the listing row model and loads monthly Inside
// Airbnb extracts into in-memory tables.
package dataset

// Listing is one row of an Inside Airbnb listings extract. PriceRaw holds
// the price column as it appeared in the source file (possibly "$1,234.00");
// Price is only set once the cleaner has parsed it. Optional numeric columns
// are nil when the source cell was empty or unparseable.
type Listing struct {
	ID       string
	Name     string
	PriceRaw string
	Price    *float64

	// Month is the calendar month name taken from the source filename;
	// MonthNum is filled in by preprocessing (1-12).
	Month    string
	MonthNum int

	Borough      string
	Neighborhood string
	RoomType     string

	MinimumNights     *float64
	NumberOfReviews   *float64
	ReviewsPerMonth   *float64
	HostListingsCount *float64
	Bedrooms          *float64
}

// Table is an immutable-by-convention collection of listings. Pipeline
// stages take a Table and return a new one; they never mutate rows in place.
type Table []Listing

// Column names accepted by grouped operations.
const (
	ColumnBorough      = "borough"
	ColumnMonth        = "month"
	ColumnNeighborhood = "neighborhood"
	ColumnRoomType     = "room_type"
)

// Numeric column names accepted by correlation analysis.
const (
	ColumnPrice             = "price"
	ColumnMinimumNights     = "minimum_nights"
	ColumnNumberOfReviews   = "number_of_reviews"
	ColumnReviewsPerMonth   = "reviews_per_month"
	ColumnHostListingsCount = "calculated_host_listings_count"
	ColumnBedrooms          = "bedrooms"
)

// GroupValue returns the categorical value of the named column for a row.
// The boolean result is false for columns that cannot be grouped on.
func GroupValue(l Listing, column string) (string, bool) {
	switch column {
	case ColumnBorough:
		return l.Borough, true
	case ColumnMonth:
		return l.Month, true
	case ColumnNeighborhood:
		return l.Neighborhood, true
	case ColumnRoomType:
		return l.RoomType, true
	default:
		return "", false
	}
}

// NumericValue returns the numeric value of the named column for a row.
// Price reads the cleaned value; nil means the cell is missing. The boolean
// result is false for unknown columns.
func NumericValue(l Listing, column string) (*float64, bool) {
	switch column {
	case ColumnPrice:
		return l.Price, true
	case ColumnMinimumNights:
		return l.MinimumNights, true
	case ColumnNumberOfReviews:
		return l.NumberOfReviews, true
	case ColumnReviewsPerMonth:
		return l.ReviewsPerMonth, true
	case ColumnHostListingsCount:
		return l.HostListingsCount, true
	case ColumnBedrooms:
		return l.Bedrooms, true
	default:
		return nil, false
	}
}

// GroupColumns lists the categorical columns grouped operations accept
func GroupColumns() []string {
	return []string{ColumnBorough, ColumnMonth, ColumnNeighborhood, ColumnRoomType}
}

// NumericColumns lists the numeric columns correlation analysis accepts
func NumericColumns() []string {
	return []string{
		ColumnPrice,
		ColumnMinimumNights,
		ColumnNumberOfReviews,
		ColumnReviewsPerMonth,
		ColumnHostListingsCount,
		ColumnBedrooms,
	}
}
