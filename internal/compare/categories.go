package compare

import "strings"

// categoryMapping translates Assogestioni categories (the Italian
// industry classification used by universe spreadsheets) into the
// Morningstar categories used by the market data sources. Data, not
// behavior: the engine consults it only as a fallback when a direct
// category match yields nothing.
var categoryMapping = map[string][]string{
	"AZ. AMERICA": {
		"Azionari USA Large Cap Blend",
		"Azionari USA Large Cap Growth",
		"Azionari USA Large Cap Value",
	},
	"AZ. AREA EURO": {
		"Azionari Europa Large Cap Blend",
	},
	"AZ. EUROPA": {
		"Azionari Europa Large Cap Blend",
		"Azionari Europa Large Cap Growth",
		"Azionari Europa Large Cap Value",
	},
	"AZ. INTERNAZIONALI": {
		"Azionari Globali Large Cap Blend",
		"Azionari Globali Large Cap Growth",
		"Azionari Globali Large Cap Value",
	},
	"AZ. ITALIA": {
		"Azionari Italia",
	},
	"AZ. PACIFICO": {
		"Azionari Asia-Pacifico ex-Giappone",
		"Azionari Giappone Large Cap",
	},
	"AZ. PAESI EMERGENTI": {
		"Azionari Paesi Emergenti",
		"Azionari Cina",
	},
	"AZ. SALUTE": {
		"Azionari Settore Salute",
	},
	"AZ. SETTORE TECNOLOGIA": {
		"Azionari Settore Tecnologia",
	},
	"AZ. ENERGIA E MAT. PRIME": {
		"Azionari Settore Energia",
		"Azionari Settore Risorse Naturali",
		"Azionari Settore Metalli Preziosi",
	},
	"AZ. SETTORIALI": {
		"Azionari Settore Finanza",
		"Azionari Settore Immobiliare",
		"Azionari Settore Infrastrutture",
		"Azionari Settore Utilities",
		"Azionari Settore Beni di Consumo",
	},
	"BILANCIATI": {
		"Bilanciati EUR Moderati",
		"Bilanciati Globali",
	},
	"BILANCIATI AZIONARI": {
		"Bilanciati EUR Aggressivi",
	},
	"BILANCIATI OBBLIGAZIONARI": {
		"Bilanciati EUR Prudenti",
	},
	"FLESSIBILI": {
		"Flessibili EUR",
		"Flessibili Globali",
	},
	"OBBL. EURO CORPORATE INV. GRADE": {
		"Obbligazionari EUR Corporate",
	},
	"OBBL. EURO GOV. BREVE TERMINE": {
		"Obbligazionari EUR Governativi",
	},
	"OBBL. EURO GOV. M/L TERMINE": {
		"Obbligazionari EUR Governativi",
		"Obbligazionari EUR Inflation-Linked",
	},
	"OBBL. EURO HIGH YIELD": {
		"Obbligazionari EUR High Yield",
	},
	"OBBL. EURO MISTI": {
		"Obbligazionari EUR Diversificati",
	},
	"OBBL. INTERNAZIONALI": {
		"Obbligazionari Globali",
		"Obbligazionari Globali High Yield",
	},
	"OBBL. INTERNAZIONALI GOV.": {
		"Obbligazionari Globali",
	},
	"OBBL. INTERNAZIONALI CORPORATE": {
		"Obbligazionari USD Corporate",
	},
	"OBBL. PAESI EMERGENTI": {
		"Obbligazionari Mercati Emergenti",
	},
	"FONDI DI LIQUIDITA' AREA EURO": {
		"Monetari EUR",
	},
}

// MapCategory translates a category into the Morningstar category set
// used for market searches. Morningstar categories map to themselves.
// An Assogestioni category is looked up exactly, then by substring in
// either direction; with no mapping the original category is returned
// so the search still has something to match on.
func MapCategory(category string, taxonomy string) []string {
	if taxonomy != "assogestioni" {
		return []string{category}
	}

	if mapped, ok := categoryMapping[category]; ok {
		return mapped
	}

	upper := strings.ToUpper(category)
	for assoCat, msCats := range categoryMapping {
		if strings.Contains(assoCat, upper) || strings.Contains(upper, assoCat) {
			return msCats
		}
	}

	return []string{category}
}

// reverseMapped returns the Assogestioni categories whose mapping
// contains the given Morningstar category.
func reverseMapped(morningstarCategory string) []string {
	var out []string
	for assoCat, msCats := range categoryMapping {
		for _, ms := range msCats {
			if ms == morningstarCategory {
				out = append(out, assoCat)
				break
			}
		}
	}
	return out
}
