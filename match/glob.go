package match

// glob reports whether the whole of name matches pattern, where '*' matches any
// run of runes and '?' matches exactly one rune. There are no escapes and no
// character classes, so every other rune is literal.
func glob(pattern, name string) bool {
	p := []rune(pattern)
	n := []rune(name)

	var (
		pi, ni       int
		starP, starN = -1, 0
	)

	for ni < len(n) {
		switch {
		case pi < len(p) && p[pi] == '*':
			starP, starN = pi, ni
			pi++
		case pi < len(p) && (p[pi] == '?' || p[pi] == n[ni]):
			pi++
			ni++
		case starP >= 0:
			// backtrack: let the last star swallow one more rune
			starN++
			pi, ni = starP+1, starN
		default:
			return false
		}
	}

	for pi < len(p) && p[pi] == '*' {
		pi++
	}

	return pi == len(p)
}
