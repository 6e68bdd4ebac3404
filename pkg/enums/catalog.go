package enums

import "fmt"

// CatalogSort orders the storefront product listing.
type CatalogSort string

const (
	CatalogSortNewest    CatalogSort = "newest"
	CatalogSortPriceAsc  CatalogSort = "price_asc"
	CatalogSortPriceDesc CatalogSort = "price_desc"
	CatalogSortNameAsc   CatalogSort = "name_asc"
	CatalogSortNameDesc  CatalogSort = "name_desc"
)

var validCatalogSorts = []CatalogSort{
	CatalogSortNewest,
	CatalogSortPriceAsc,
	CatalogSortPriceDesc,
	CatalogSortNameAsc,
	CatalogSortNameDesc,
}

// ParseCatalogSort converts a query value into a CatalogSort. Blank input
// means newest first.
func ParseCatalogSort(value string) (CatalogSort, error) {
	if value == "" {
		return CatalogSortNewest, nil
	}
	for _, candidate := range validCatalogSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort %q", value)
}

// StockAvailability filters the catalog on whether a product has stock left.
type StockAvailability string

const (
	StockAvailabilityAny        StockAvailability = ""
	StockAvailabilityInStock    StockAvailability = "in_stock"
	StockAvailabilityOutOfStock StockAvailability = "out_of_stock"
)

// ParseStockAvailability converts a query value into a StockAvailability.
func ParseStockAvailability(value string) (StockAvailability, error) {
	switch StockAvailability(value) {
	case StockAvailabilityAny, StockAvailabilityInStock, StockAvailabilityOutOfStock:
		return StockAvailability(value), nil
	}
	return "", fmt.Errorf("invalid availability %q", value)
}
