package normalizer

import "github.com/PrathamTagline/d247-be/internal/rawdoc"

// The upstream provider wraps the same market records in several envelope
// shapes depending on endpoint. Each extractor is a pure shape probe:
// it returns the record list when the document matches its shape, nil
// otherwise. Probes run in declaration order; the first non-empty result
// wins.
type extractor func(doc interface{}) []interface{}

var extractors = []extractor{
	extractOddsData,
	extractHighlight,
	extractData,
	extractBareList,
}

// {"odds": {"data": [...]}}
func extractOddsData(doc interface{}) []interface{} {
	m, ok := rawdoc.Map(doc)
	if !ok {
		return nil
	}
	odds, ok := rawdoc.Map(m["odds"])
	if !ok {
		return nil
	}
	records, _ := rawdoc.List(odds["data"])
	return records
}

// {"highlight": {"data": {"t1": [...], "t2": [...]}}} with t1 concatenated
// before t2, or {"highlight": {"data": [...]}}.
func extractHighlight(doc interface{}) []interface{} {
	m, ok := rawdoc.Map(doc)
	if !ok {
		return nil
	}
	highlight, ok := rawdoc.Map(m["highlight"])
	if !ok {
		return nil
	}

	if nested, ok := rawdoc.Map(highlight["data"]); ok {
		var records []interface{}
		for _, variant := range []string{"t1", "t2"} {
			if list, ok := rawdoc.List(nested[variant]); ok {
				records = append(records, list...)
			}
		}
		return records
	}

	records, _ := rawdoc.List(highlight["data"])
	return records
}

// {"data": [...]}
func extractData(doc interface{}) []interface{} {
	m, ok := rawdoc.Map(doc)
	if !ok {
		return nil
	}
	records, _ := rawdoc.List(m["data"])
	return records
}

// [...]
func extractBareList(doc interface{}) []interface{} {
	records, _ := rawdoc.List(doc)
	return records
}

// ExtractRecords sniffs the document shape and returns the contained market
// record list, or nil when no shape yields records.
func ExtractRecords(doc interface{}) []interface{} {
	for _, extract := range extractors {
		if records := extract(doc); len(records) > 0 {
			return records
		}
	}
	return nil
}
