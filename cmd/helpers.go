package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/mediaintel-cli/internal/ai"
	"github.com/KaramelBytes/mediaintel-cli/internal/dataset"
	"github.com/KaramelBytes/mediaintel-cli/internal/filter"
	"github.com/KaramelBytes/mediaintel-cli/internal/insight"
	"github.com/KaramelBytes/mediaintel-cli/internal/utils"
	"github.com/KaramelBytes/mediaintel-cli/internal/views"
)

// loadDataset reads and normalizes a CSV/XLSX export, reporting rows dropped during parsing.
func loadDataset(w io.Writer, path string) (*dataset.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	ds, err := dataset.Load(path, data)
	if err != nil {
		return nil, err
	}
	logger.Debug("dataset loaded", zap.String("source", ds.Source), zap.Int("rows", ds.Len()), zap.Int("skipped", ds.Skipped))
	if ds.Skipped > 0 {
		fmt.Fprintf(w, "⚠ %d rows skipped (unparseable Date or Engagements)\n", ds.Skipped)
	}
	if ds.Empty() {
		fmt.Fprintf(w, "⚠ %s has no usable rows\n", ds.Source)
	}
	return ds, nil
}

// filterFlags binds the filter dimensions shared by every dataset command.
type filterFlags struct {
	from, to   string
	platforms  []string
	sentiments []string
	mediaTypes []string
	locations  []string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.from, "from", "", "keep rows on or after this date (YYYY-MM-DD)")
	fl.StringVar(&f.to, "to", "", "keep rows on or before this date (YYYY-MM-DD)")
	fl.StringSliceVar(&f.platforms, "platform", nil, "platforms to keep ('*' = all; empty = none)")
	fl.StringSliceVar(&f.sentiments, "sentiment", nil, "sentiments to keep ('*' = all; empty = none)")
	fl.StringSliceVar(&f.mediaTypes, "media-type", nil, "media types to keep ('*' = all; empty = none)")
	fl.StringSliceVar(&f.locations, "location", nil, "locations to keep ('*' = all; empty = none)")
}

// criteria turns the flags into filter criteria. Dimensions whose flag was not given stay unrestricted.
func (f *filterFlags) criteria(cmd *cobra.Command, ds *dataset.Dataset) (filter.Criteria, error) {
	var c filter.Criteria
	var err error
	if c.Start, err = parseDateFlag("from", f.from); err != nil {
		return c, err
	}
	if c.End, err = parseDateFlag("to", f.to); err != nil {
		return c, err
	}
	pick := func(name string, vals []string) []string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		if vals == nil {
			return []string{}
		}
		return vals
	}
	c.Platforms = pick("platform", f.platforms)
	c.Sentiments = pick("sentiment", f.sentiments)
	c.MediaTypes = pick("media-type", f.mediaTypes)
	c.Locations = pick("location", f.locations)
	return filter.Resolve(c, ds), nil
}

func parseDateFlag(name, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q (use YYYY-MM-DD)", name, v)
	}
	return &t, nil
}

// loadFiltered combines loadDataset and the filter flags.
func loadFiltered(cmd *cobra.Command, path string, ff *filterFlags) (*dataset.Dataset, filter.Criteria, error) {
	ds, err := loadDataset(cmd.OutOrStdout(), path)
	if err != nil {
		return nil, filter.Criteria{}, err
	}
	c, err := ff.criteria(cmd, ds)
	if err != nil {
		return nil, c, err
	}
	return filter.Apply(ds, c), c, nil
}

// parseCharts resolves --chart values; none means every chart.
func parseCharts(vals []string) ([]views.ChartKey, error) {
	if len(vals) == 0 {
		return views.Keys, nil
	}
	out := make([]views.ChartKey, 0, len(vals))
	for _, v := range vals {
		k, err := views.ParseKey(v)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// parsePersonas resolves --persona values; none means every persona. Unknown values fall back to the default persona.
func parsePersonas(w io.Writer, vals []string) []string {
	if len(vals) == 0 {
		var out []string
		for _, p := range insight.Personas() {
			out = append(out, p.ID)
		}
		return out
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		p, ok := insight.Lookup(v)
		if !ok {
			fmt.Fprintf(w, "⚠ Unknown persona %q; using the %s persona\n", v, p.Label)
		}
		out = append(out, p.ID)
	}
	return out
}

// recordingGenerator keeps the last generation error so commands can explain a FailureText.
type recordingGenerator struct {
	inner insight.Generator
	mu    sync.Mutex
	err   error
}

func (r *recordingGenerator) Generate(ctx context.Context, prompt, persona string) (string, error) {
	text, err := r.inner.Generate(ctx, prompt, persona)
	if err != nil {
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
	}
	return text, err
}

func (r *recordingGenerator) lastErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// newInsightService builds the generator from configuration and wraps it in an insight.Service.
func newInsightService() (*insight.Service, *recordingGenerator, *ai.Generator, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	gen, err := c.Generator()
	if err != nil {
		return nil, nil, nil, err
	}
	rec := &recordingGenerator{inner: gen}
	return insight.NewService(rec, logger), rec, gen, nil
}

// reportFailure prints the provider error behind a failed insight with a hint when one applies.
func reportFailure(w io.Writer, rec *recordingGenerator) {
	err := rec.lastErr()
	if err == nil {
		return
	}
	fmt.Fprintf(w, "✗ Generation failed: %v\n", err)
	if h := ai.Hint(err); h != "" {
		fmt.Fprintf(w, "  Hint: %s\n", h)
	}
}

// estimate prints the token count and estimated max cost of prompt and returns the cost.
func estimate(w io.Writer, gen *ai.Generator, persona, prompt string) float64 {
	model := gen.ModelFor(persona)
	tokens := utils.CountTokens(prompt)
	fmt.Fprintf(w, "Tokens: prompt≈%d, max-tokens=%d, model=%s\n", tokens, gen.MaxTokens, model)
	cost, ok := ai.EstimateCostUSD(model, tokens, gen.MaxTokens)
	if !ok {
		return 0
	}
	fmt.Fprintf(w, "Estimated max cost: ~$%.6f\n", cost)
	return cost
}

func enforceBudget(estCost, limit float64) error {
	if limit > 0 && estCost > 0 && estCost > limit {
		return fmt.Errorf("✗ Estimated cost ~$%.6f exceeds budget limit ~$%.6f", estCost, limit)
	}
	return nil
}

// commandContext bounds a generation command by the configured HTTP timeout times its retries.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := 180 * time.Second
	if cfg != nil && cfg.HTTPTimeoutSec > 0 && cfg.RetryMaxAttempts > 0 {
		timeout = time.Duration(cfg.HTTPTimeoutSec*(cfg.RetryMaxAttempts+1)) * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
