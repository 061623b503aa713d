package resolver

import (
	"context"
	"errors"
	"strings"
	"time"

	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/services/catalog"
	"lyrics-resolver-go/services/lrcfilter"
	"lyrics-resolver-go/services/mapping"
	"lyrics-resolver-go/services/matcher"
	"lyrics-resolver-go/services/normalize"
	"lyrics-resolver-go/services/yrc"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultStrategyDelay = 200 * time.Millisecond

// Resolver turns a Query into a Result: mapping lookup, catalog search,
// candidate matching, then lyric fetch and cleanup.
type Resolver struct {
	client        catalog.Client
	mappings      *mapping.Table
	codec         *yrc.Codec
	filter        *lrcfilter.Filter
	strategyDelay time.Duration
	concurrent    bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMappings sets the static mapping table. Without it, every query is searched.
func WithMappings(t *mapping.Table) Option {
	return func(r *Resolver) { r.mappings = t }
}

// WithStrategyDelay sets the pause between search strategies.
func WithStrategyDelay(d time.Duration) Option {
	return func(r *Resolver) { r.strategyDelay = d }
}

// WithConcurrentSearch issues the keyword searches of one strategy at once.
// Results are still taken in keyword order.
func WithConcurrentSearch(enabled bool) Option {
	return func(r *Resolver) { r.concurrent = enabled }
}

// WithCodec overrides the word-timed lyric codec.
func WithCodec(c *yrc.Codec) Option {
	return func(r *Resolver) { r.codec = c }
}

// WithFilter overrides the synced lyric line filter.
func WithFilter(f *lrcfilter.Filter) Option {
	return func(r *Resolver) { r.filter = f }
}

// New creates a Resolver over client.
func New(client catalog.Client, opts ...Option) *Resolver {
	r := &Resolver{
		client:        client,
		codec:         yrc.New(),
		filter:        lrcfilter.New(),
		strategyDelay: defaultStrategyDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds the song for q and returns it with its lyrics.
//
// A mapping hit skips search entirely. Otherwise the search plan is run in
// order and the first keyword whose results yield a match wins. Failed
// searches are skipped; running out of keywords is ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, q Query) (*Result, error) {
	log.Infof("%s %q by %q", logcolors.LogRequest, q.trackName, q.artistName)

	if id, key, ok := r.mappings.Lookup(q.normalizedTitle, q.artists, q.trackName, q.artistName); ok {
		log.Infof("%s %s -> %s", logcolors.LogMapping, key, id)
		return r.ResolveCatalogID(ctx, id, q)
	}

	hit, err := r.search(ctx, q)
	if err != nil {
		return nil, err
	}

	id := hit.candidate.LyricKey()
	if id == "" {
		return nil, newError(ErrUpstream, "matched song has no catalog id", nil)
	}

	result := newResult(hit.candidate, q, r.fetchLyrics(ctx, id))
	result.Strategy = hit.strategy
	result.Keyword = hit.keyword

	log.Infof("%s %s - %s [%s]", logcolors.LogSuccess, result.TrackName, result.ArtistName, result.MID)
	return result, nil
}

// ResolveCatalogID returns the song with the given catalog id without
// searching. Song metadata is best effort: when it cannot be fetched the
// names from q are used.
func (r *Resolver) ResolveCatalogID(ctx context.Context, catalogID string, q Query) (*Result, error) {
	if catalogID == "" {
		return nil, newError(ErrInvalidRequest, "catalog id is required", nil)
	}

	l := r.fetchLyrics(ctx, catalogID)

	meta, err := r.client.FetchSongMetadata(ctx, catalogID)
	if err != nil {
		log.Warnf("%s No metadata for %s, using request names: %v", logcolors.LogMapping, catalogID, err)
		meta = nil
	}

	return newMappedResult(catalogID, meta, q, l), nil
}

// strategy is one step of the search plan.
type strategy struct {
	name     Strategy
	keywords []string
}

// plan returns the ordered search strategies for q. Complex titles are first
// searched by their core name, then by the normalized title.
func plan(q Query) []strategy {
	keywordsFor := func(title string) []string {
		kws := make([]string, len(q.artists))
		for i, artist := range q.artists {
			kws[i] = title + " " + artist
		}
		return kws
	}

	if !normalize.IsComplex(q.normalizedTitle) {
		return []strategy{{name: StrategyDirect, keywords: keywordsFor(q.normalizedTitle)}}
	}

	return []strategy{
		{name: StrategyCoreName, keywords: keywordsFor(normalize.CoreName(q.normalizedTitle))},
		{name: StrategyNormalized, keywords: keywordsFor(normalize.Title(q.normalizedTitle))},
	}
}

// attempt is the outcome of one keyword search.
type attempt struct {
	candidates []catalog.Candidate
	err        error
}

type found struct {
	candidate catalog.Candidate
	strategy  Strategy
	keyword   string
}

func (r *Resolver) search(ctx context.Context, q Query) (found, error) {
	mq := q.matcherQuery()
	var lastErr error

	for i, s := range plan(q) {
		if i > 0 {
			if err := sleep(ctx, r.strategyDelay); err != nil {
				return found{}, newError(ErrUpstream, "search cancelled", err)
			}
		}
		log.Debugf("%s %s: %v", logcolors.LogStrategy, s.name, s.keywords)

		if f, ok, err := r.runStrategy(ctx, s, mq); ok {
			return f, nil
		} else if err != nil {
			lastErr = err
		}

		if ctx.Err() != nil {
			return found{}, newError(ErrUpstream, "search cancelled", ctx.Err())
		}
	}

	log.Warnf("%s %q by %q", logcolors.LogNotFound, q.trackName, q.artistName)
	return found{}, newError(ErrNotFound, "no matching song in catalog", lastErr)
}

// runStrategy searches each keyword of s and returns the first match in
// keyword order. err is the last search failure, if any.
func (r *Resolver) runStrategy(ctx context.Context, s strategy, mq matcher.Query) (found, bool, error) {
	var lastErr error
	evaluate := func(keyword string, a attempt) (found, bool) {
		if a.err != nil {
			log.Warnf("%s %q failed: %v", logcolors.LogSearch, keyword, a.err)
			lastErr = a.err
			return found{}, false
		}
		c, ok := matcher.Match(a.candidates, mq)
		if !ok {
			log.Debugf("%s %q returned nothing", logcolors.LogSearch, keyword)
			return found{}, false
		}
		return found{candidate: c, strategy: s.name, keyword: keyword}, true
	}

	if !r.concurrent || len(s.keywords) < 2 {
		for _, kw := range s.keywords {
			candidates, err := r.client.Search(ctx, kw)
			if f, ok := evaluate(kw, attempt{candidates, err}); ok {
				return f, true, nil
			}
		}
		return found{}, false, lastErr
	}

	cctx, cancel := context.WithCancel(ctx)
	results := make([]chan attempt, len(s.keywords))
	var g errgroup.Group
	defer func() {
		cancel()
		g.Wait()
	}()

	for i, kw := range s.keywords {
		i, kw := i, kw
		results[i] = make(chan attempt, 1)
		g.Go(func() error {
			candidates, err := r.client.Search(cctx, kw)
			results[i] <- attempt{candidates, err}
			return nil
		})
	}

	// Earlier keywords win even when later ones answer first.
	for i, kw := range s.keywords {
		if f, ok := evaluate(kw, <-results[i]); ok {
			return f, true, nil
		}
	}
	return found{}, false, lastErr
}

// fetchLyrics fetches and cleans every lyric asset of a song. Each fetch is
// independent and a failure leaves its field empty.
func (r *Resolver) fetchLyrics(ctx context.Context, catalogID string) lyrics {
	var (
		l     lyrics
		blobs *catalog.LyricBlobs
		g     errgroup.Group
	)

	g.Go(func() error {
		var err error
		if blobs, err = r.client.FetchLyricPayload(ctx, catalogID); err != nil {
			log.Warnf("%s Lyric payload for %s unavailable: %v", logcolors.LogLyrics, catalogID, err)
		}
		return nil
	})
	g.Go(func() error {
		l.wordTimed = r.fetchWordTimed(ctx, catalogID)
		return nil
	})
	g.Wait()

	for _, p := range blobs.Payloads() {
		text, err := r.decodePayload(p)
		if err != nil {
			log.Warnf("%s %v", logcolors.LogLyrics, err)
			continue
		}
		switch p.Kind {
		case catalog.PayloadSynced:
			l.synced = text
		case catalog.PayloadTranslated:
			l.translated = text
		}
	}
	return l
}

// decodePayload base64-decodes a synced or translated blob and filters it.
func (r *Resolver) decodePayload(p catalog.LyricPayload) (string, error) {
	text, err := catalog.DecodeBlob(p.Data)
	if err != nil {
		return "", newError(ErrDecode, p.Kind.String()+" lyrics", err)
	}

	cleaned, report := r.filter.Run(text)
	log.Debugf("%s %s: kept %d line(s) of %d", logcolors.LogFilter, p.Kind, countLines(cleaned), report.Parsed)
	return cleaned, nil
}

func (r *Resolver) fetchWordTimed(ctx context.Context, catalogID string) string {
	envelope, err := r.client.FetchTimedLyricTransport(ctx, catalogID)
	if err != nil {
		log.Warnf("%s Transport for %s unavailable: %v", logcolors.LogYRC, catalogID, err)
		return ""
	}

	text, err := r.codec.DecodeStrict(envelope)
	if err != nil {
		if errors.Is(err, yrc.ErrNoPayload) {
			// Most songs have no word-timed lyrics at all.
			log.Debugf("%s No word-timed lyrics for %s", logcolors.LogYRC, catalogID)
			return ""
		}
		log.Warnf("%s %v", logcolors.LogYRC, newError(ErrDecode, catalogID, err))
		return ""
	}
	return text
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
