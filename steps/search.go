package steps

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// searchActor is the actor the English search steps act as.
const searchActor = "searcher"

func (s *scenario) registerSearchSteps(r Registrar) {
	r.Step(`^I navigate to Google$`, s.navigateToSearch)
	r.Step(`^I search for the configured search term$`, s.searchConfiguredTerm)
	r.Step(`^I search for "([^"]*)"$`, s.searchFor)
	r.Step(`^I should see search results$`, s.shouldSeeResults)
	r.Step(`^the search results should contain the search term$`, s.resultsContainSearchTerm)
	r.Step(`^the search results should contain "([^"]*)"$`, s.resultsContain)
}

func (s *scenario) navigateToSearch(ctx context.Context) error {
	if s.actors == nil {
		return ErrBrowserDisabled
	}
	actor, err := s.actors.Register(ctx, searchActor)
	if err != nil {
		return err
	}
	if err := actor.Search.Navigate(s.opts.Settings.BaseURL); err != nil {
		return err
	}

	visible, err := actor.Search.SearchBoxVisible()
	if err != nil {
		return err
	}
	if !visible {
		return &AssertionFailure{Expected: "visible", Actual: "hidden", Actor: searchActor, Message: "search box"}
	}
	return nil
}

func (s *scenario) searchConfiguredTerm(ctx context.Context) error {
	return s.searchFor(ctx, s.opts.Settings.SearchTerm)
}

func (s *scenario) searchFor(ctx context.Context, term string) error {
	actor, err := s.actor(searchActor)
	if err != nil {
		return err
	}
	s.searchTerm = term
	if err := actor.Search.Search(term); err != nil {
		return err
	}

	s.stepLogger().InfoContext(ctx, "Searched", slog.String("term", term))
	return nil
}

func (s *scenario) shouldSeeResults(ctx context.Context) error {
	actor, err := s.actor(searchActor)
	if err != nil {
		return err
	}

	hasResults, err := actor.Search.HasResults()
	if err != nil {
		return err
	}
	if !hasResults {
		return &AssertionFailure{Expected: "results page", Actual: actor.Page.URL(), Actor: searchActor, Message: "search results should be displayed"}
	}

	count, err := actor.Search.ResultCount()
	if err != nil {
		return err
	}
	if count == 0 {
		return &AssertionFailure{Expected: "more than 0", Actual: count, Actor: searchActor, Message: "number of search results"}
	}

	attrs := []any{slog.Int("results", count)}
	if stats := actor.Search.ResultStats(); stats != "" {
		attrs = append(attrs, slog.String("stats", stats))
	}
	s.stepLogger().InfoContext(ctx, "Found search results", attrs...)
	return nil
}

// resultsContainSearchTerm checks for the first word of the last search term.
func (s *scenario) resultsContainSearchTerm(ctx context.Context) error {
	words := strings.Fields(s.searchTerm)
	if len(words) == 0 {
		return fmt.Errorf("no search term used in this scenario")
	}
	return s.resultsContain(ctx, words[0])
}

func (s *scenario) resultsContain(ctx context.Context, text string) error {
	actor, err := s.actor(searchActor)
	if err != nil {
		return err
	}
	ok, err := actor.Search.ResultsContain(text)
	if err != nil {
		return err
	}
	if !ok {
		return &AssertionFailure{Expected: text, Actual: "not found", Actor: searchActor, Message: "search results should contain the text"}
	}

	s.stepLogger().InfoContext(ctx, "Search results contain text", slog.String("text", text))
	return nil
}
