package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListingKey(t *testing.T) {
	id := func(s string) *string { return &s }

	tests := []struct {
		name       string
		externalID *string
		seller     string
		title      string
		want       string
	}{
		{name: "external id", externalID: id("X1"), seller: "Acme", title: "Widget", want: "X1"},
		{name: "external id is trimmed", externalID: id("  X1 "), want: "X1"},
		{name: "blank id falls back", externalID: id("   "), seller: "Acme", title: "Blue Widget", want: "seller:acme|blue widget"},
		{name: "nil id falls back", seller: " ACME ", title: " Blue Widget ", want: "seller:acme|blue widget"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ListingKey(tt.externalID, tt.seller, tt.title))
		})
	}
}

func TestNormalizeListingKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "X1", want: "X1"},
		{in: " X1 ", want: "X1"},
		{in: "AbC-9", want: "AbC-9"},
		{in: "seller:Acme|Blue Widget", want: "seller:acme|blue widget"},
		{in: "SELLER: Acme | Blue Widget ", want: "seller:acme|blue widget"},
		{in: "seller:acme|blue widget", want: "seller:acme|blue widget"},
		{in: "seller:Acme", want: "seller:acme|"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeListingKey(tt.in))
		})
	}

	listing := Listing{SellerName: "Acme Store", Title: "Blue Widget, 2 pack"}
	assert.Equal(t, listing.Key(), NormalizeListingKey("seller:ACME STORE|Blue Widget, 2 Pack"))
	assert.Equal(t, listing.Key(), NormalizeListingKey(listing.Key()))
}

func TestParseShippingFeeType(t *testing.T) {
	tests := map[string]ShippingFeeType{
		"free":      ShippingFree,
		" FREE ":    ShippingFree,
		"known":     ShippingKnown,
		"error":     ShippingError,
		"unknown":   ShippingUnknown,
		"":          ShippingUnknown,
		"on-demand": ShippingUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseShippingFeeType(in), "input %q", in)
	}

	assert.True(t, ShippingFree.IsResolved())
	assert.True(t, ShippingKnown.IsResolved())
	assert.False(t, ShippingUnknown.IsResolved())
	assert.False(t, ShippingError.IsResolved())
}
