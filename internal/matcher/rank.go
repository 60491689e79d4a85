package matcher

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/actuallystonmai/product-recommender/internal/domain"
	"github.com/actuallystonmai/product-recommender/internal/embedding"
)

// candidate is a catalog index with its optional score.
type candidate struct {
	idx   int
	score *float64
}

func inCatalogOrder(idxs []int) []candidate {
	out := make([]candidate, len(idxs))
	for n, i := range idxs {
		out[n] = candidate{idx: i}
	}
	return out
}

func sortByScore(cs []candidate) {
	sort.SliceStable(cs, func(a, b int) bool {
		return *cs[a].score > *cs[b].score
	})
}

// rankByProbability orders idxs by descending probability. ok is false, with
// one warning per offending product, when any product lacks a probability.
func rankByProbability(catalog []domain.Product, idxs []int) (out []candidate, warnings []domain.Warning, ok bool) {
	for _, i := range idxs {
		if catalog[i].Probability == nil {
			warnings = append(warnings, domain.Warning{
				Code:      domain.WarningMissingScoreField,
				ProductID: catalog[i].ID,
				Message:   "product has no probability of recommendation",
			})
		}
	}
	if len(warnings) > 0 {
		return nil, warnings, false
	}

	out = make([]candidate, len(idxs))
	for n, i := range idxs {
		p := *catalog[i].Probability
		out[n] = candidate{idx: i, score: &p}
	}
	sortByScore(out)
	return out, nil, true
}

type vectorResult struct {
	vec []float64
	err error
}

// embedAll embeds texts with at most limit calls in flight. Results are
// indexed like texts; per-text failures are reported, not returned.
func embedAll(ctx context.Context, e embedding.Embedder, texts []string, limit int) []vectorResult {
	results := make([]vectorResult, len(texts))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := e.Embed(ctx, text)
			if err == nil {
				err = embedding.CheckVector(vec)
			}
			results[i] = vectorResult{vec: vec, err: err}
			return nil
		})
	}
	g.Wait()

	return results
}

// rankBySimilarity orders the qualifying products that embed cleanly by
// cosine similarity to the customer's signals. Products that fail to embed
// are left to backfill. customerOK is false when the customer text itself
// could not be embedded; the caller then falls back.
func rankBySimilarity(ctx context.Context, catalog []domain.Product, qualifying []int, sig signals, opts Options) (out []candidate, warnings []domain.Warning, customerOK bool, err error) {
	query, qerr := opts.Embedder.Embed(ctx, sig.text())
	if qerr == nil {
		qerr = embedding.CheckVector(query)
	}
	if qerr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, false, ctxErr
		}
		warnings = append(warnings, domain.Warning{
			Code:    domain.WarningEmbeddingFailure,
			Message: fmt.Sprintf("customer profile could not be embedded: %v", qerr),
		})
		return nil, warnings, false, nil
	}

	texts := make([]string, len(qualifying))
	for n, i := range qualifying {
		texts[n] = catalog[i].Text()
	}
	vectors := embedAll(ctx, opts.Embedder, texts, opts.EmbedConcurrency)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, nil, false, ctxErr
	}

	for n, i := range qualifying {
		res := vectors[n]
		var sim float64
		if res.err == nil {
			sim, res.err = embedding.Cosine(query, res.vec)
		}
		if res.err != nil {
			warnings = append(warnings, domain.Warning{
				Code:      domain.WarningEmbeddingFailure,
				ProductID: catalog[i].ID,
				Message:   fmt.Sprintf("product could not be scored: %v", res.err),
			})
			continue
		}
		out = append(out, candidate{idx: i, score: &sim})
	}

	sortByScore(out)
	return out, warnings, true, nil
}
