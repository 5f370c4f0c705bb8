package catalog

import "strings"

// Status is the user's decision for an item.
type Status string

const (
	StatusKeep Status = "keep"
	StatusSell Status = "sell"
	StatusTBD  Status = "tbd"
)

// tbdSynonyms are historical values written by earlier versions of the
// product. They all fold into StatusTBD and carry no further distinction.
var tbdSynonyms = map[string]bool{
	"":            true,
	"tbd":         true,
	"draft":       true,
	"unprocessed": true,
	"maybe":       true,
}

// ParseStatus normalizes a stored status string, folding legacy synonyms.
// Unrecognized values fold to TBD as well.
func ParseStatus(s string) Status {
	switch norm := strings.ToLower(strings.TrimSpace(s)); {
	case norm == string(StatusKeep):
		return StatusKeep
	case norm == string(StatusSell):
		return StatusSell
	case tbdSynonyms[norm]:
		return StatusTBD
	default:
		return StatusTBD
	}
}
