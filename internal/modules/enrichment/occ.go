package enrichment

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OCCDetails is the contract identity decoded from an OCC option symbol
type OCCDetails struct {
	Underlying string
	Expiry     string // YYYY-MM-DD
	OptionType string // call or put
	Strike     float64
}

// ParseOCCSymbol decodes a 21-character OCC option symbol such as
// "AAPL  240621C00190000": a space-padded root, yymmdd expiry, C or P,
// and the strike price times 1000.
func ParseOCCSymbol(symbol string) (*OCCDetails, error) {
	if len(symbol) < 16 {
		return nil, fmt.Errorf("occ symbol %q too short", symbol)
	}

	tail := symbol[len(symbol)-15:]
	root := strings.TrimSpace(symbol[:len(symbol)-15])
	if root == "" {
		return nil, fmt.Errorf("occ symbol %q has no underlying", symbol)
	}

	expiry, err := time.Parse("060102", tail[:6])
	if err != nil {
		return nil, fmt.Errorf("occ symbol %q has bad expiry: %w", symbol, err)
	}

	var optionType string
	switch tail[6] {
	case 'C':
		optionType = "call"
	case 'P':
		optionType = "put"
	default:
		return nil, fmt.Errorf("occ symbol %q has bad option type %q", symbol, tail[6])
	}

	strikeRaw, err := strconv.ParseInt(tail[7:], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("occ symbol %q has bad strike: %w", symbol, err)
	}

	return &OCCDetails{
		Underlying: root,
		Expiry:     expiry.Format("2006-01-02"),
		OptionType: optionType,
		Strike:     float64(strikeRaw) / 1000,
	}, nil
}
