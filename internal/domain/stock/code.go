package stock

import (
	"strings"
)

// Exchange prefixes used by the market-data provider.
const (
	PrefixShanghai = "sh"
	PrefixShenzhen = "sz"
)

// IsBareCode reports whether s is a bare 6-digit A-share code.
func IsBareCode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// AddPrefix turns a bare 6-digit code into the provider's prefixed form,
// e.g. "601888" -> "sh.601888".
//
// Convention for A-share codes:
//   - 60 / 68 for Shanghai main board and STAR market -> sh
//   - 00 / 30 / 92 for Shenzhen main board, ChiNext -> sz
//   - anything else defaults to sz
func AddPrefix(code string) (string, error) {
	code = strings.TrimSpace(code)
	if !IsBareCode(code) {
		return "", ErrMalformedCode
	}

	prefix := PrefixShenzhen
	if strings.HasPrefix(code, "60") || strings.HasPrefix(code, "68") {
		prefix = PrefixShanghai
	}
	return prefix + "." + code, nil
}

// BareCode strips the exchange prefix if present, returning the 6-digit
// code used by the analyst-report source.
func BareCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if IsBareCode(code) {
		return code, nil
	}
	if len(code) > 6 {
		tail := code[len(code)-6:]
		if IsBareCode(tail) {
			return tail, nil
		}
	}
	return "", ErrMalformedCode
}

// Normalize returns both forms of a code: the prefixed form used by the
// valuation source and the bare form used by the report source. Accepts
// either form as input.
func Normalize(code string) (prefixed, bare string, err error) {
	code = strings.TrimSpace(code)
	if IsBareCode(code) {
		prefixed, err = AddPrefix(code)
		if err != nil {
			return "", "", err
		}
		return prefixed, code, nil
	}

	bare, err = BareCode(code)
	if err != nil {
		return "", "", err
	}
	return code, bare, nil
}
