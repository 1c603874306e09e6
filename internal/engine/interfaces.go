package engine

// Overrides is the read side of the override store the engine consults.
// model.OverrideSet satisfies it.
type Overrides interface {
	IsExcluded(productID, listingKey string) bool
	IsIncluded(productID, listingKey string) bool
	ShippingFee(productID, listingKey string) (int64, bool)
}

type noOverrides struct{}

func (noOverrides) IsExcluded(_, _ string) bool { return false }

func (noOverrides) IsIncluded(_, _ string) bool { return false }

func (noOverrides) ShippingFee(_, _ string) (int64, bool) { return 0, false }

func orNone(ov Overrides) Overrides {
	if ov == nil {
		return noOverrides{}
	}
	return ov
}
