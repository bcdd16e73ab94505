package regions

// LanguageAtOffset returns the language of the region containing offset, ends inclusive,
// or LanguageHost when offset falls between regions.
func (r *Result) LanguageAtOffset(offset int) string {
	for _, region := range r.Regions {
		if region.Start > offset {
			break
		}
		if offset <= region.End {
			return region.LanguageID
		}
	}
	return LanguageHost
}

// LanguagesInDocument lists the distinct region languages, host language first.
func (r *Result) LanguagesInDocument() []string {
	out := []string{LanguageHost}
	seen := map[string]bool{LanguageHost: true}
	for _, region := range r.Regions {
		if region.LanguageID == "" || seen[region.LanguageID] {
			continue
		}
		seen[region.LanguageID] = true
		out = append(out, region.LanguageID)
	}
	return out
}

// RangeOfType returns the first region of type t.
func (r *Result) RangeOfType(t Type) (Region, bool) {
	for _, region := range r.Regions {
		if region.Type == t {
			return region, true
		}
	}
	return Region{}, false
}

func (r *Result) OfType(t Type) []Region {
	var out []Region
	for _, region := range r.Regions {
		if region.Type == t {
			out = append(out, region)
		}
	}
	return out
}

// ScriptLanguage is the language of the first script region, or the scripting default.
func (r *Result) ScriptLanguage() string {
	if region, ok := r.RangeOfType(TypeScript); ok {
		return region.LanguageID
	}
	return LanguageScripting
}
