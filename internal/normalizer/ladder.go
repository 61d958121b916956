package normalizer

import (
	"github.com/PrathamTagline/d247-be/internal/rawdoc"
	"github.com/PrathamTagline/d247-be/pkg/models"
)

// BuildLadder splits a runner's raw odds list into ordered back and lay
// ladders. Entries with a non-positive price are dropped; levels are
// assigned after filtering, 0-based, preserving feed emission order. No
// price sorting happens here: the feed already emits best-to-worst.
// A missing or malformed odds value yields two empty ladders.
func BuildLadder(rawOdds interface{}) (back, lay []models.PriceLevel) {
	back = []models.PriceLevel{}
	lay = []models.PriceLevel{}

	entries, ok := rawdoc.List(rawOdds)
	if !ok {
		return back, lay
	}

	for _, entry := range entries {
		odd, ok := rawdoc.Map(entry)
		if !ok {
			continue
		}
		if rawdoc.Float(odd["odds"]) <= 0 {
			continue
		}

		level := models.PriceLevel{
			Rate: rawdoc.NumStr(odd["odds"]),
			Size: rawdoc.Float(odd["size"]),
		}

		switch rawdoc.Str(odd["otype"]) {
		case "back":
			level.Level = len(back)
			back = append(back, level)
		case "lay":
			level.Level = len(lay)
			lay = append(lay, level)
		}
	}

	return back, lay
}
