package insight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/KaramelBytes/mediaintel-cli/internal/dataset"
	"github.com/KaramelBytes/mediaintel-cli/internal/views"
)

// Generator is the external text-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, prompt, persona string) (string, error)
}

// FailureText replaces the answer whenever generation fails for any reason.
const FailureText = "Failed to generate insight. Check the AI provider settings and try again."

// EmptyText is returned without calling the generator when there is no data to describe.
const EmptyText = "No data available for the current filters."

// Kind names what an Insight is about.
type Kind string

const (
	KindChart    Kind = "chart"
	KindSummary  Kind = "summary"
	KindPostIdea Kind = "post_idea"
	KindAnswer   Kind = "answer"
)

// Insight is one generated text tied to the dataset version it was computed from.
type Insight struct {
	Kind      Kind           `json:"kind"`
	Chart     views.ChartKey `json:"chart,omitempty"`
	Persona   string         `json:"persona,omitempty"`
	Text      string         `json:"text"`
	Failed    bool           `json:"failed,omitempty"`
	Version   string         `json:"version,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Service turns prompts into insights. Concurrent requests with the same
// (dataset version, subject, persona, prompt) share one generator call.
type Service struct {
	gen         Generator
	log         *zap.Logger
	group       singleflight.Group
	concurrency int
}

// NewService wraps gen. A nil logger disables logging.
func NewService(gen Generator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{gen: gen, log: log, concurrency: 4}
}

// ChartInsight asks for an insight about one chart in the style of persona.
func (s *Service) ChartInsight(ctx context.Context, version string, res views.ChartResult, persona string) Insight {
	p := Canonical(persona)
	in := Insight{Kind: KindChart, Chart: res.Key, Persona: p, Version: version, CreatedAt: time.Now().UTC()}
	if len(res.Points) == 0 {
		in.Text = EmptyText
		return in
	}
	prompt := BuildChartPrompt(res.Key, res.JSON(), p)
	in.Text, in.Failed = s.run(ctx, flightKey(version, KindChart, string(res.Key), p), prompt, p)
	return in
}

// ChartInsights computes insights for every (chart, persona) pair with bounded concurrency.
// Results keep charts order, then personas order.
func (s *Service) ChartInsights(ctx context.Context, version string, charts []views.ChartResult, personas []string) []Insight {
	out := make([]Insight, len(charts)*len(personas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, res := range charts {
		for j, p := range personas {
			idx := i*len(personas) + j
			res, p := res, p
			g.Go(func() error {
				out[idx] = s.ChartInsight(gctx, version, res, p)
				return nil
			})
		}
	}
	_ = g.Wait()
	return out
}

// Summary asks for an executive summary of ds.
func (s *Service) Summary(ctx context.Context, version string, ds *dataset.Dataset) Insight {
	in := Insight{Kind: KindSummary, Version: version, CreatedAt: time.Now().UTC()}
	if ds.Empty() {
		in.Text = EmptyText
		return in
	}
	in.Text, in.Failed = s.run(ctx, flightKey(version, KindSummary), BuildSummaryPrompt(views.Describe(ds).JSON()), "")
	return in
}

// PostIdea asks for a post idea for the best performing platform in ds.
func (s *Service) PostIdea(ctx context.Context, version string, ds *dataset.Dataset) Insight {
	in := Insight{Kind: KindPostIdea, Version: version, CreatedAt: time.Now().UTC()}
	if ds.Empty() {
		in.Text = EmptyText
		return in
	}
	in.Text, in.Failed = s.run(ctx, flightKey(version, KindPostIdea), BuildPostIdeaPrompt(views.BestPlatform(ds)), "")
	return in
}

// Ask answers a free-form question with the dataset summary as context.
func (s *Service) Ask(ctx context.Context, version string, ds *dataset.Dataset, question string, history []Turn) Insight {
	in := Insight{Kind: KindAnswer, Version: version, CreatedAt: time.Now().UTC()}
	prompt := BuildConsultantPrompt(views.Describe(ds).JSON(), question, history)
	in.Text, in.Failed = s.run(ctx, flightKey(version, KindAnswer), prompt, "")
	return in
}

func (s *Service) run(ctx context.Context, key, prompt, persona string) (string, bool) {
	sum := sha256.Sum256([]byte(prompt))
	key += "|" + hex.EncodeToString(sum[:])
	if s.gen == nil {
		s.log.Warn("insight requested without a generator", zap.String("key", key))
		return FailureText, true
	}
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.gen.Generate(ctx, prompt, persona)
	})
	if err != nil {
		s.log.Warn("insight generation failed", zap.String("key", key), zap.Error(err))
		return FailureText, true
	}
	text, _ := v.(string)
	if strings.TrimSpace(text) == "" {
		s.log.Warn("insight generation returned no text", zap.String("key", key))
		return FailureText, true
	}
	s.log.Debug("insight generated", zap.String("key", key), zap.Bool("shared", shared), zap.Int("chars", len(text)))
	return text, false
}

func flightKey(version string, kind Kind, parts ...string) string {
	return version + "|" + string(kind) + "|" + strings.Join(parts, "|")
}
