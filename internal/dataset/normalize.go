package dataset

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// legacyMediaType is the underscore spelling some exports use for ColMediaType.
const legacyMediaType = "Media_Type"

// Normalize coerces a raw table into the canonical record shape.
// Rows with an unparseable Date or Engagements are dropped and counted in Skipped.
// Categorical columns that are absent, and empty cells within them, become NotAvailable.
// An empty result is valid.
func Normalize(t *Table) *Dataset {
	ds := &Dataset{Records: []Record{}}
	if t == nil {
		return ds
	}
	ds.Source = t.Source
	idx := columnIndex(t.Header)

	dateCol, hasDate := idx[key(ColDate)]
	engCol, hasEng := idx[key(ColEngagements)]
	cat := make(map[string]int, len(CategoricalColumns))
	for _, name := range CategoricalColumns {
		if i, ok := idx[key(name)]; ok {
			cat[name] = i
		}
	}

	for _, row := range t.Rows {
		if !hasDate || !hasEng {
			ds.Skipped++
			continue
		}
		date, ok := parseDate(cell(row, dateCol))
		if !ok {
			ds.Skipped++
			continue
		}
		eng, ok := parseEngagements(cell(row, engCol))
		if !ok {
			ds.Skipped++
			continue
		}
		ds.Records = append(ds.Records, Record{
			Date:        date,
			Engagements: eng,
			Platform:    categorical(row, cat, ColPlatform),
			Sentiment:   categorical(row, cat, ColSentiment),
			MediaType:   categorical(row, cat, ColMediaType),
			Location:    categorical(row, cat, ColLocation),
			Headline:    categorical(row, cat, ColHeadline),
		})
	}
	return ds
}

// columnIndex maps case-folded column names to their first position.
// The underscore media type spelling is folded into the canonical spaced name.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		k := key(h)
		if k == key(legacyMediaType) {
			k = key(ColMediaType)
		}
		if _, dup := idx[k]; !dup {
			idx[k] = i
		}
	}
	return idx
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func categorical(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok {
		return NotAvailable
	}
	v := strings.TrimSpace(cell(row, i))
	if v == "" {
		return NotAvailable
	}
	return norm.NFC.String(v)
}
