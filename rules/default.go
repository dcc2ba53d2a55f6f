package rules

// DefaultDefinition returns the built-in product rule table.
func DefaultDefinition() Definition {
	return Definition{
		Pairings: []Pairing{
			{Top: "T-Shirt", Bottoms: []string{"Shorts", "Pants"}},
			{Top: "Shirt", Bottoms: []string{"Pants", "Jeans"}},
			{Top: "Blouse", Bottoms: []string{"Skirt", "Pants"}},
		},
		Weather: map[string][]string{
			"cold":      {"Hoodie", "Jacket", "Long Sleeve"},
			"hot":       {"T-Shirt", "Shorts", "Tank Top"},
			"mild":      {"Light Sweater", "T-Shirt", "Long Sleeve", "Shirt", "Blouse"},
			"very_cold": {"Winter Coat", "Hoodie", "Sweater", "Long Sleeve"},
			"warm":      {"Light Sweater", "T-Shirt", "Shorts"},
			"rainy":     {"Rain Jacket", "Hoodie", "Long Sleeve"},
		},
		Occasions: map[string]Profile{
			"casual":   {StyleCategories: []string{"T-Shirt", "Jeans", "Shorts", "Sneakers"}, Comfort: ComfortHigh},
			"formal":   {StyleCategories: []string{"Shirt", "Dress Pants", "Blazer"}, Comfort: ComfortMedium},
			"business": {StyleCategories: []string{"Button-down Shirt", "Slacks", "Dress Shoes"}, Comfort: ComfortLow},
			"workout":  {StyleCategories: []string{"Tank Top", "Athletic Shorts", "Leggings"}, Comfort: ComfortHigh},
			"date":     {StyleCategories: []string{"Blouse", "Nice Jeans", "Dress"}, Comfort: ComfortMedium},
		},
		FallbackBottoms: []string{"Pants", "Jeans", "Shorts"},
		DefaultOccasion: "casual",
	}
}

// Default returns the built-in rule set.
func Default() *RuleSet {
	rs, err := New(DefaultDefinition())
	if err != nil {
		panic(err)
	}
	return rs
}
