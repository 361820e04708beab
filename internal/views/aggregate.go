package views

import (
	"sort"

	"github.com/KaramelBytes/mediaintel-cli/internal/dataset"
)

type measure int

const (
	count measure = iota
	sum
)

type order int

const (
	firstSeen order = iota
	byDate
	byValueDesc
)

// viewDef configures the shared group-by/aggregate/sort/truncate primitive for one view.
type viewDef struct {
	key     ChartKey
	measure measure
	order   order
	limit   int // 0 keeps every group
	group   func(dataset.Record) string
}

var viewDefs = map[ChartKey]viewDef{
	Sentiment: {key: Sentiment, measure: count, order: firstSeen, group: func(r dataset.Record) string { return r.Sentiment }},
	Trend:     {key: Trend, measure: sum, order: byDate, group: func(r dataset.Record) string { return dataset.Day(r.Date).Format(dateKey) }},
	Platform:  {key: Platform, measure: sum, order: byValueDesc, limit: 10, group: func(r dataset.Record) string { return r.Platform }},
	MediaType: {key: MediaType, measure: count, order: firstSeen, group: func(r dataset.Record) string { return r.MediaType }},
	Location:  {key: Location, measure: sum, order: byValueDesc, limit: 5, group: func(r dataset.Record) string { return r.Location }},
}

const dateKey = "2006-01-02"

func aggregate(ds *dataset.Dataset, s viewDef) ChartResult {
	res := ChartResult{Key: s.key, Points: []Point{}, Rows: ds.Len()}
	if ds.Empty() {
		return res
	}
	pos := map[string]int{}
	for _, r := range ds.Records {
		g := s.group(r)
		i, ok := pos[g]
		if !ok {
			i = len(res.Points)
			pos[g] = i
			res.Points = append(res.Points, Point{Category: g})
		}
		switch s.measure {
		case count:
			res.Points[i].Value++
		case sum:
			res.Points[i].Value += r.Engagements
		}
	}
	switch s.order {
	case byDate:
		for i := range res.Points {
			res.Points[i].Date, _ = parseDateKey(res.Points[i].Category)
			res.Points[i].Category = ""
		}
		sort.SliceStable(res.Points, func(i, j int) bool { return res.Points[i].Date.Before(res.Points[j].Date) })
	case byValueDesc:
		sort.SliceStable(res.Points, func(i, j int) bool { return res.Points[i].Value > res.Points[j].Value })
	}
	if s.limit > 0 && len(res.Points) > s.limit {
		res.Points = res.Points[:s.limit]
	}
	return res
}
