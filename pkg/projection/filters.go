package projection

// segment is a slice of a binding value and its offset within the value.
type segment struct {
	text   string
	offset int
}

// splitFilters separates a binding into its expression and the filters piped after it with a
// single "|". Pipes inside strings, brackets or "||" do not split.
func splitFilters(s string) (segment, []segment) {
	var (
		cuts  []int
		quote byte
		depth int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '|':
			if depth != 0 {
				continue
			}
			if i+1 < len(s) && s[i+1] == '|' {
				i++
				continue
			}
			if i > 0 && s[i-1] == '|' {
				continue
			}
			cuts = append(cuts, i)
		}
	}

	if len(cuts) == 0 {
		return segment{text: s}, nil
	}

	head := segment{text: s[:cuts[0]]}
	var filters []segment
	for i, cut := range cuts {
		end := len(s)
		if i+1 < len(cuts) {
			end = cuts[i+1]
		}
		filters = append(filters, segment{text: s[cut+1 : end], offset: cut + 1})
	}
	return head, filters
}
