package dataset

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestLoadCSV_NormalizesRows(t *testing.T) {
	csv := strings.Join([]string{
		"Date,Engagements,Sentiment,Platform,Media_Type,Location,Headline",
		"2024-01-01,10,Positive,X,Video,Jakarta,First",
		"2024-01-01 13:45:00,5.9,Negative,X,,Bandung,Second",
		"not-a-date,7,Neutral,Y,Image,Jakarta,Third",
		"2024-01-02,abc,Neutral,Y,Image,Jakarta,Fourth",
		"01/02/2024,3,,Y,Text,,Fifth",
	}, "\n")

	ds, err := Load("mentions.csv", []byte(csv))
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, 2, ds.Skipped)
	assert.Equal(t, "mentions.csv", ds.Source)

	first := ds.Records[0]
	assert.Equal(t, day("2024-01-01"), first.Date)
	assert.Equal(t, int64(10), first.Engagements)
	assert.Equal(t, "Video", first.MediaType)

	second := ds.Records[1]
	assert.Equal(t, day("2024-01-01"), second.Date, "time of day is dropped")
	assert.Equal(t, int64(5), second.Engagements, "fractional engagements truncate toward zero")
	assert.Equal(t, NotAvailable, second.MediaType)

	third := ds.Records[2]
	assert.Equal(t, day("2024-01-02"), third.Date, "month-first slash dates")
	assert.Equal(t, NotAvailable, third.Sentiment)
	assert.Equal(t, NotAvailable, third.Location)
}

func TestLoadCSV_MissingLocationColumn(t *testing.T) {
	csv := "Date,Engagements,Platform\n2024-01-01,1,X\n2024-01-02,2,Y\n"
	ds, err := Load("a.csv", []byte(csv))
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	for _, r := range ds.Records {
		assert.Equal(t, NotAvailable, r.Location)
		assert.Equal(t, NotAvailable, r.Headline)
		assert.Equal(t, NotAvailable, r.Sentiment)
	}
}

func TestLoadCSV_MissingRequiredColumnYieldsEmptyDataset(t *testing.T) {
	ds, err := Load("a.csv", []byte("Date,Platform\n2024-01-01,X\n"))
	require.NoError(t, err)
	assert.True(t, ds.Empty())
	assert.Equal(t, 1, ds.Skipped)
}

func TestLoadCSV_HeaderOnly(t *testing.T) {
	ds, err := Load("a.csv", []byte("Date,Engagements\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
	assert.NotNil(t, ds.Records)
}

func TestLoadCSV_NegativeAndHugeEngagementsDropped(t *testing.T) {
	csv := "Date,Engagements\n2024-01-01,-4\n2024-01-01,1e30\n2024-01-01,1 200\n"
	ds, err := Load("a.csv", []byte(csv))
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, int64(1200), ds.Records[0].Engagements)
	assert.Equal(t, 2, ds.Skipped)
}

func TestLoadCSV_SemicolonAndBOM(t *testing.T) {
	csv := "\xef\xbb\xbf\"Date\";Engagements;Platform\n2024-03-05;42;TikTok\n"
	ds, err := Load("semi.csv", []byte(csv))
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "TikTok", ds.Records[0].Platform)
	assert.Equal(t, int64(42), ds.Records[0].Engagements)
}

func TestLoadCSV_CorruptStructure(t *testing.T) {
	for name, body := range map[string]string{
		"empty":      "",
		"bare quote": "Date,Engagements\n2024-01-01,\"12\n2024-01-02,3\"x,\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load("broken.csv", []byte(body))
			require.Error(t, err)
			var ie *IngestError
			require.True(t, errors.As(err, &ie), "want IngestError, got %T", err)
			assert.Equal(t, "broken.csv", ie.Source)
		})
	}
}

func TestLoadCSV_CaseInsensitiveHeaders(t *testing.T) {
	ds, err := Load("a.csv", []byte(" date , ENGAGEMENTS ,media type\n2024-01-01,3,Print\n"))
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "Print", ds.Records[0].MediaType)
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Date", "Engagements", "Platform", "Location"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"2024-02-01", "15", "Instagram", "Surabaya"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"2024-02-02", "oops", "Instagram", "Surabaya"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	ds, err := Load("book.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, 1, ds.Skipped)
	assert.Equal(t, "Instagram", ds.Records[0].Platform)
	assert.Equal(t, NotAvailable, ds.Records[0].Sentiment)
}

func TestLoadXLSX_NotAWorkbook(t *testing.T) {
	_, err := Load("book.xlsx", []byte("definitely not a zip"))
	var ie *IngestError
	require.ErrorAs(t, err, &ie)
}

func TestBounds(t *testing.T) {
	ds := &Dataset{Records: []Record{
		{Date: day("2024-01-05")}, {Date: day("2024-01-01")}, {Date: day("2024-01-09")},
	}}
	first, last, ok := ds.Bounds()
	require.True(t, ok)
	assert.Equal(t, day("2024-01-01"), first)
	assert.Equal(t, day("2024-01-09"), last)

	_, _, ok = (&Dataset{}).Bounds()
	assert.False(t, ok)
}

func TestEveryRecordValid(t *testing.T) {
	csv := "Date,Engagements\n2024-01-01,1\n,2\n2024-01-03,\n2024-01-04,4\n"
	ds, err := Load("a.csv", []byte(csv))
	require.NoError(t, err)
	for _, r := range ds.Records {
		assert.False(t, r.Date.IsZero())
		assert.GreaterOrEqual(t, r.Engagements, int64(0))
	}
	assert.Equal(t, 2, ds.Len())
}

func TestParseEngagements(t *testing.T) {
	cases := map[string]struct {
		want int64
		ok   bool
	}{
		"42":        {42, true},
		" 7 ":       {7, true},
		"5.9":       {5, true},
		"1,200":     {1200, true},
		"12,345.6":  {12345, true},
		"1 000":     {1000, true},
		"2,000,000": {2000000, true},
		"1,200,":    {0, false},
		"-1,200":    {0, false},
		"1,2":       {0, false},
		"12,34,567": {0, false},
		"-3":        {0, false},
		"abc":       {0, false},
		"":          {0, false},
	}
	for in, tc := range cases {
		got, ok := parseEngagements(in)
		assert.Equal(t, tc.ok, ok, in)
		if tc.ok {
			assert.Equal(t, tc.want, got, in)
		}
	}
	got, ok := parseEngagements("1\u00a0500")
	assert.True(t, ok)
	assert.Equal(t, int64(1500), got)
}

func TestLoadCSV_GroupedThousandsKept(t *testing.T) {
	csv := "Date,Engagements\n2024-01-01,\"1,200\"\n2024-01-02,\"12,345.6\"\n2024-01-03,\"1,2\"\n"
	ds, err := Load("a.csv", []byte(csv))
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, int64(1200), ds.Records[0].Engagements)
	assert.Equal(t, int64(12345), ds.Records[1].Engagements)
	assert.Equal(t, 1, ds.Skipped)
}
