// Package actors keeps the named simulated users of a scenario. Every actor owns an
// isolated browser context (cookies, storage) and one page inside it.
package actors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/playwright-community/playwright-go"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/networkteam/fogonqa/pages"
)

// ContextFactory creates isolated browser contexts.
type ContextFactory interface {
	NewContext() (playwright.BrowserContext, error)
}

// UnknownActorError is returned when a step refers to an actor that was never registered.
type UnknownActorError struct {
	Name  string
	Known []string
}

func (e *UnknownActorError) Error() string {
	return fmt.Sprintf("unknown actor %q (known: %v)", e.Name, e.Known)
}

// Actor is a named user with its own browser context.
type Actor struct {
	Name    string
	Context playwright.BrowserContext
	Page    playwright.Page

	Fogon  *pages.FogonPage
	Songs  *pages.SongTable
	Search *pages.SearchPage
}

// Registry maps actor names to actors. It is scoped to one scenario.
type Registry struct {
	factory  ContextFactory
	pageOpts pages.PageOptions
	logger   *slog.Logger

	mu     sync.Mutex
	actors map[string]*Actor
}

func NewRegistry(factory ContextFactory, pageOpts pages.PageOptions, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factory:  factory,
		pageOpts: pageOpts,
		logger:   logger,
		actors:   make(map[string]*Actor),
	}
}

// Register creates a fresh context and page for name. An actor already registered under
// name is replaced and its context closed.
func (r *Registry) Register(ctx context.Context, name string) (*Actor, error) {
	if name == "" {
		return nil, errors.New("actor name must not be empty")
	}

	bctx, err := r.factory.NewContext()
	if err != nil {
		return nil, fmt.Errorf("creating context for actor %q: %w", name, err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("creating page for actor %q: %w", name, err)
	}

	opts := r.pageOpts
	opts.Logger = r.logger.With(slog.String("actor", name))
	actor := &Actor{
		Name:    name,
		Context: bctx,
		Page:    page,
		Fogon:   pages.NewFogonPage(page, opts),
		Songs:   pages.NewSongTable(page, opts),
		Search:  pages.NewSearchPage(page, opts),
	}

	r.mu.Lock()
	previous := r.actors[name]
	r.actors[name] = actor
	r.mu.Unlock()

	if previous != nil {
		r.logger.DebugContext(ctx, "Replacing actor", slog.String("actor", name))
		if err := previous.Context.Close(); err != nil {
			r.logger.WarnContext(ctx, "Closing replaced actor failed", slog.String("actor", name), slog.Any("error", err))
		}
	}

	r.logger.DebugContext(ctx, "Actor registered", slog.String("actor", name))
	return actor, nil
}

// Resolve returns the actor registered under name. There is no default actor.
func (r *Registry) Resolve(name string) (*Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	actor, ok := r.actors[name]
	if !ok {
		return nil, &UnknownActorError{Name: name, Known: r.namesLocked()}
	}
	return actor, nil
}

// Names returns the registered actor names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := lo.Keys(r.actors)
	sort.Strings(names)
	return names
}

// Actors returns all registered actors ordered by name.
func (r *Registry) Actors() []*Actor {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.Map(r.namesLocked(), func(name string, _ int) *Actor {
		return r.actors[name]
	})
}

// CloseAll closes every actor context concurrently and empties the registry. All contexts
// are closed even if some fail; the failures are joined.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	actors := r.actors
	r.actors = make(map[string]*Actor)
	r.mu.Unlock()

	var (
		g    errgroup.Group
		errs = make([]error, len(actors))
		next int
	)
	for name, actor := range actors {
		i := next
		next++
		g.Go(func() error {
			if err := actor.Context.Close(); err != nil {
				errs[i] = fmt.Errorf("closing actor %q: %w", name, err)
				return errs[i]
			}
			return nil
		})
	}
	// Wait reports only the first failure; errs holds all of them.
	err := g.Wait()
	if err != nil {
		err = errors.Join(errs...)
	}

	r.logger.DebugContext(ctx, "Actors closed", slog.Int("count", len(actors)), slog.Int("failed", len(lo.Compact(errs))))
	return err
}
