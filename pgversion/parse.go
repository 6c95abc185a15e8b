package pgversion

import "strings"

// maxComponentDigits bounds how many digits are ever collected for one
// version component, matching the original's VERSION_BUF_SIZE - 1 bound so
// a pathological version string can't drive an unbounded scan.
const maxComponentDigits = 9

// Parse extracts (major, minor) from a "SELECT version()" result such as
// "PostgreSQL 12.3 on x86_64-pc-linux-gnu, ..." or "PostgreSQL 12beta1 on
// ...". It locates the first space, then walks the remaining digits
// exactly as the original scanner does: collect up to the next non-digit,
// convert leniently (a non-numeric or empty run converts to 0), and
// advance one byte past the delimiter unconditionally even if that byte
// isn't actually '.' — this matches the original's behavior on malformed
// input like "12beta1" where there is no real second component.
//
// For a single leading component >= 10 (PostgreSQL 10+), major is that
// component * 10 and minor is the next collected run. For an older
// "X.Y.Z" string, major is X*10+Y and minor is Z.
func Parse(s string) (major, minor int32, err error) {
	spaceIdx := strings.IndexByte(s, ' ')
	if spaceIdx < 0 {
		return 0, 0, &FatalError{Reason: "unable to find the first space in the version string: " + s}
	}
	p := spaceIdx + 1

	first, consumed := collectDigits(s, p)
	firstVal := atoiLenient(first)
	p += consumed

	var majorVal int32
	if firstVal >= 10 {
		majorVal = firstVal * 10
		p++ // skip delimiter unconditionally, even if malformed
		minorDigits, _ := collectDigits(s, p)
		minor = atoiLenient(minorDigits)
	} else {
		p++ // skip delimiter unconditionally
		secondDigits, consumed2 := collectDigits(s, p)
		secondVal := atoiLenient(secondDigits)
		p += consumed2
		majorVal = firstVal*10 + secondVal

		p++ // skip delimiter unconditionally
		minorDigits, _ := collectDigits(s, p)
		minor = atoiLenient(minorDigits)
	}

	if majorVal < 60 || majorVal > 1000 {
		return 0, 0, &FatalError{Reason: "wrong major version"}
	}
	if minor < 0 || minor > 100 {
		return 0, 0, &FatalError{Reason: "wrong minor version"}
	}

	return majorVal, minor, nil
}

// collectDigits scans s starting at index p, collecting up to
// maxComponentDigits consecutive ASCII digits. It stops at the first
// non-digit byte or the end of the string. Returns the collected digits
// and how many bytes were consumed (not counting the terminator).
func collectDigits(s string, p int) (digits string, consumed int) {
	start := p
	for p < len(s) && consumed < maxComponentDigits && s[p] >= '0' && s[p] <= '9' {
		p++
		consumed++
	}
	if start > len(s) {
		return "", 0
	}
	end := start + consumed
	if end > len(s) {
		end = len(s)
	}
	return s[start:end], consumed
}

// atoiLenient mirrors atoi(3)'s behavior of treating a non-numeric or
// empty string as 0 rather than erroring.
func atoiLenient(s string) int32 {
	var n int32
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int32(c-'0')
	}
	return n
}
