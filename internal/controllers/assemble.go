package controllers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/models"
	"github.com/AndreJorgeLopes/taste.io-ratings-scraper/internal/utils"
	"github.com/sirupsen/logrus"
)

// IdentityResolver resolves a title to its canonical identity
type IdentityResolver interface {
	Resolve(ctx context.Context, title, year string, category models.Category) (*models.Identity, error)
}

// AssemblerOptions holds the policies applied while assembling a backup
type AssemblerOptions struct {
	// KeepUnresolvedRated keeps rated entries whose identity could not be resolved, with null ids
	KeepUnresolvedRated bool
	// RatingScale multiplies source ratings onto the 0-10 target scale
	RatingScale float64
	Ignore      *utils.IgnoreList
}

// AssemblyStats counts what happened to the source items
type AssemblyStats struct {
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
	Ignored    int `json:"ignored"`
	Unresolved int `json:"unresolved"`
}

// AssemblyState is the backup under construction, threaded through each pass
type AssemblyState struct {
	Backup models.Backup
	Ledger []models.WatchedShowLedger
	Seen   map[string]struct{}
	Stats  AssemblyStats

	ledgerIndex map[string]int
}

// NewAssemblyState returns an empty state
func NewAssemblyState() *AssemblyState {
	return &AssemblyState{
		Backup:      models.NewBackup(),
		Ledger:      []models.WatchedShowLedger{},
		Seen:        map[string]struct{}{},
		ledgerIndex: map[string]int{},
	}
}

func (s *AssemblyState) seen(key string) bool {
	_, found := s.Seen[key]
	return found
}

func (s *AssemblyState) markSeen(composite string, ids *models.Identity) {
	s.Seen[composite] = struct{}{}
	if ids != nil {
		s.Seen[identityKey(ids)] = struct{}{}
	}
}

func (s *AssemblyState) add(category models.Category, entry models.MediaEntry) {
	if category.IsShow() {
		s.Backup.Shows = append(s.Backup.Shows, entry)
	} else {
		s.Backup.Movies = append(s.Backup.Movies, entry)
	}
	s.Stats.Added++
}

func identityKey(ids *models.Identity) string {
	return "id:" + strconv.Itoa(ids.Simkl)
}

// Assembler builds the backup document and the watched-episodes ledger
type Assembler struct {
	resolver IdentityResolver
	episodes EpisodeSource
	opts     AssemblerOptions
	logger   *logrus.Logger
}

// NewAssembler creates an assembler; episodes may be nil to skip the ledger
func NewAssembler(resolver IdentityResolver, episodes EpisodeSource, opts AssemblerOptions, logger *logrus.Logger) *Assembler {
	if opts.RatingScale <= 0 {
		opts.RatingScale = 1
	}
	return &Assembler{
		resolver: resolver,
		episodes: episodes,
		opts:     opts,
		logger:   logger,
	}
}

// Assemble runs the rated, saved and watching passes in that order.
// On a rate limit it returns the partial state built so far together with the error.
func (a *Assembler) Assemble(ctx context.Context, rated, saved, watching []models.SourceItem) (*AssemblyState, error) {
	if r, ok := a.resolver.(interface{ Reset() }); ok {
		r.Reset()
	}

	state := NewAssemblyState()
	if err := a.AddRated(ctx, state, rated); err != nil {
		return state, err
	}
	if err := a.AddListed(ctx, state, saved, models.StatusPlanToWatch); err != nil {
		return state, err
	}
	if err := a.AddListed(ctx, state, watching, models.StatusWatching); err != nil {
		return state, err
	}

	a.logger.WithFields(logrus.Fields{
		"movies":     len(state.Backup.Movies),
		"shows":      len(state.Backup.Shows),
		"ledger":     len(state.Ledger),
		"duplicates": state.Stats.Duplicates,
		"ignored":    state.Stats.Ignored,
		"unresolved": state.Stats.Unresolved,
	}).Info("Backup assembled")
	return state, nil
}

// AddRated adds rated items as completed entries
func (a *Assembler) AddRated(ctx context.Context, state *AssemblyState, items []models.SourceItem) error {
	for _, item := range items {
		if a.ignored(state, item) {
			continue
		}

		category := Classify(item)
		composite := utils.CompositeKey(item.Name, item.Year.String())

		ids, err := a.resolver.Resolve(ctx, item.Name, utils.ExtractYear(item.Year.String()), category)
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", item.Name, err)
		}

		if ids == nil {
			state.Stats.Unresolved++
			if !a.opts.KeepUnresolvedRated {
				state.markSeen(composite, nil)
				continue
			}
		}

		state.add(category, models.MediaEntry{
			Title:  item.Name,
			Rating: a.scaleRating(item.SourceRating()),
			Year:   item.Year,
			Status: models.StatusCompleted,
			IDs:    ids,
		})
		state.markSeen(composite, ids)
	}
	return nil
}

// AddListed adds saved or in-progress items not already present in the backup.
// In-progress shows also get a ledger entry with their watched episodes.
func (a *Assembler) AddListed(ctx context.Context, state *AssemblyState, items []models.SourceItem, status models.Status) error {
	for _, item := range items {
		if a.ignored(state, item) {
			continue
		}

		log := a.logger.WithFields(logrus.Fields{
			"title":  item.Name,
			"status": status,
		})

		composite := utils.CompositeKey(item.Name, item.Year.String())
		if state.seen(composite) {
			log.Debug("Skipping duplicate title")
			state.Stats.Duplicates++
			continue
		}

		category := Classify(item)
		ids, err := a.resolver.Resolve(ctx, item.Name, utils.ExtractYear(item.Year.String()), category)
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", item.Name, err)
		}
		if ids == nil {
			log.Debug("Dropping unresolved title")
			state.Stats.Unresolved++
			state.markSeen(composite, nil)
			continue
		}
		if state.seen(identityKey(ids)) {
			log.WithField("simkl_id", ids.Simkl).Debug("Skipping duplicate identity")
			state.Stats.Duplicates++
			state.markSeen(composite, nil)
			continue
		}

		state.add(category, models.MediaEntry{
			Title:  item.Name,
			Year:   item.Year,
			Status: status,
			IDs:    ids,
		})
		state.markSeen(composite, ids)

		if status == models.StatusWatching && category.IsShow() {
			if err := a.addLedger(ctx, state, composite, item, ids); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Assembler) addLedger(ctx context.Context, state *AssemblyState, composite string, item models.SourceItem, ids *models.Identity) error {
	if a.episodes == nil || item.Slug == "" {
		return nil
	}
	if _, exists := state.ledgerIndex[composite]; exists {
		return nil
	}

	markers, err := a.episodes.WatchedEpisodes(ctx, item.Slug)
	if err != nil {
		if errors.Is(err, models.ErrRateLimited) || ctx.Err() != nil {
			return err
		}
		a.logger.WithError(err).WithField("slug", item.Slug).Warn("Failed to fetch watched episodes, skipping ledger entry")
		return nil
	}

	seasons := AggregateEpisodes(markers)
	if len(seasons) == 0 {
		return nil
	}

	state.ledgerIndex[composite] = len(state.Ledger)
	state.Ledger = append(state.Ledger, models.WatchedShowLedger{
		Title:   item.Name,
		Year:    item.Year,
		IDs:     ids,
		Seasons: seasons,
	})
	return nil
}

func (a *Assembler) ignored(state *AssemblyState, item models.SourceItem) bool {
	matched, term := a.opts.Ignore.Matches(item.Name)
	if matched {
		a.logger.WithFields(logrus.Fields{
			"title": item.Name,
			"term":  term,
		}).Debug("Title is on the ignore list")
		state.Stats.Ignored++
	}
	return matched
}

// scaleRating maps a source rating onto the 0-10 scale
func (a *Assembler) scaleRating(rating *float64) *float64 {
	if rating == nil {
		return nil
	}
	scaled := math.Max(0, math.Min(10, *rating*a.opts.RatingScale))
	return &scaled
}
