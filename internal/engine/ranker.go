package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/undercut/internal/model"
)

// KeywordOrder selects how a single keyword's listings are ordered.
type KeywordOrder string

const (
	// OrderByExposure keeps the search engine's own order.
	OrderByExposure KeywordOrder = "exposure"
	// OrderByPrice orders by total price, then item price, then exposure.
	OrderByPrice KeywordOrder = "price"
)

// ParseKeywordOrder parses a keyword order name. The empty string means exposure.
func ParseKeywordOrder(s string) (KeywordOrder, error) {
	switch KeywordOrder(strings.ToLower(strings.TrimSpace(s))) {
	case OrderByExposure, "":
		return OrderByExposure, nil
	case OrderByPrice:
		return OrderByPrice, nil
	default:
		return "", fmt.Errorf("unknown keyword order %q (want exposure or price)", s)
	}
}

// RankKeyword returns the rows of one keyword in the requested order.
// Relevant rows and the seller's own rows are numbered 1..n in that order;
// irrelevant rows stay in place with rank 0.
func RankKeyword(keyword model.Keyword, product model.Product, ov Overrides, order KeywordOrder) []model.CompetitorRow {
	rows := make([]model.CompetitorRow, 0, len(keyword.Listings))
	for _, listing := range keyword.Listings {
		if listing.KeywordID == 0 {
			listing.KeywordID = keyword.ID
		}
		rows = append(rows, BuildRow(listing, product, ov))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if order == OrderByPrice {
			if a.TotalPrice != b.TotalPrice {
				return a.TotalPrice < b.TotalPrice
			}
			if a.ItemPrice != b.ItemPrice {
				return a.ItemPrice < b.ItemPrice
			}
		}
		if a.ExposureRank != b.ExposureRank {
			return a.ExposureRank < b.ExposureRank
		}
		return a.ListingKey < b.ListingKey
	})

	rank := 0
	for i := range rows {
		rows[i].Rank = 0
		if rows[i].IsRelevant || rows[i].IsOwn {
			rank++
			rows[i].Rank = rank
		}
	}
	return rows
}

// RankCompetitors orders a merged competitor set by total price, breaking
// ties by exposure rank, and numbers the relevant rows plus the seller's
// own row 1..n. Irrelevant rows follow unranked. The input is not modified.
func RankCompetitors(rows []model.CompetitorRow) []model.CompetitorRow {
	ranked := make([]model.CompetitorRow, 0, len(rows))
	unranked := make([]model.CompetitorRow, 0)

	for _, row := range rows {
		row.Rank = 0
		if row.IsRelevant || row.IsOwn {
			ranked = append(ranked, row)
		} else {
			unranked = append(unranked, row)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return byTotal(ranked[i], ranked[j]) })
	sort.SliceStable(unranked, func(i, j int) bool { return byTotal(unranked[i], unranked[j]) })

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return append(ranked, unranked...)
}

func byTotal(a, b model.CompetitorRow) bool {
	if a.TotalPrice != b.TotalPrice {
		return a.TotalPrice < b.TotalPrice
	}
	if a.ExposureRank != b.ExposureRank {
		return a.ExposureRank < b.ExposureRank
	}
	// Own row first on a full tie so the seller sees itself ahead.
	if a.IsOwn != b.IsOwn {
		return a.IsOwn
	}
	return a.ListingKey < b.ListingKey
}
