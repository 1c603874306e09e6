package engine

import (
	"time"

	"github.com/Veraticus/undercut/internal/model"
)

func ptr[T any](v T) *T {
	return &v
}

func competitor(id string, rank int, price int64) model.Listing {
	return model.Listing{
		ExternalProductID: ptr(id),
		SellerName:        "seller-" + id,
		Title:             "Acme AB-100 Widget 2m",
		ExposureRank:      rank,
		ItemPrice:         price,
		ShippingFeeType:   model.ShippingFree,
	}
}

func ownListing(rank int, price int64) model.Listing {
	return model.Listing{
		ExternalProductID: ptr("OWN-1"),
		SellerName:        "my-shop",
		Title:             "Acme AB-100 Widget 2m",
		ExposureRank:      rank,
		ItemPrice:         price,
		ShippingFeeType:   model.ShippingFree,
		IsOwnListing:      true,
	}
}

func testProduct(sellingPrice int64, listings ...model.Listing) model.Product {
	crawled := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	return model.Product{
		ID:           "P1",
		AccountID:    "acct-1",
		Name:         "AB-100 Widget",
		SellingPrice: sellingPrice,
		Keywords: []model.Keyword{
			{ID: 1, ProductID: "P1", Text: "widget", LastCrawledAt: &crawled, Listings: listings},
		},
	}
}
