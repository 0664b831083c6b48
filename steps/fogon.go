package steps

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/networkteam/fogonqa/pages"
)

func (s *scenario) registerFogonSteps(r Registrar) {
	r.Step(`^"([^"]*)" accede a la aplicacion$`, s.actorOpensApp)
	r.Step(`^"([^"]*)" inicia un fogon$`, s.actorStartsSession)
	r.Step(`^"([^"]*)" carga la cancion "([^"]*)"$`, s.actorLoadsSong)
	r.Step(`^"([^"]*)" se une al fogon de "([^"]*)"$`, s.actorJoinsSession)
	r.Step(`^"([^"]*)" va a tocar$`, s.actorGoesToPlay)
	r.Step(`^"([^"]*)" ve la cancion "([^"]*)" en reproduccion$`, s.actorSeesNowPlaying)
	r.Step(`^"([^"]*)" ve la lista de canciones$`, s.actorReadsSongList)
	r.Step(`^la lista de canciones contiene "([^"]*)" de "([^"]*)"$`, s.songListContains)
	r.Step(`^"([^"]*)" toca la cancion "([^"]*)"$`, s.actorPlaysSong)
	r.Step(`^"([^"]*)" usa "([^"]*)" en la cancion "([^"]*)"$`, s.actorUsesRowAction)
}

func (s *scenario) actorOpensApp(ctx context.Context, name string) error {
	if s.actors == nil {
		return ErrBrowserDisabled
	}
	actor, err := s.actors.Register(ctx, name)
	if err != nil {
		return err
	}
	if err := actor.Fogon.Navigate(s.opts.Settings.BaseURL); err != nil {
		return err
	}

	s.stepLogger().InfoContext(ctx, "Actor opened the app", slog.String("actor", name), slog.String("url", s.opts.Settings.BaseURL))
	return nil
}

func (s *scenario) actorStartsSession(ctx context.Context, name string) error {
	actor, err := s.actor(name)
	if err != nil {
		return err
	}
	id, err := actor.Fogon.StartSession()
	if err != nil {
		return err
	}
	s.sessions[name] = id

	s.stepLogger().InfoContext(ctx, "Actor started a fogon",
		slog.String("actor", name),
		slog.String("sessionId", id.Value),
		slog.String("source", string(id.Source)),
	)
	return nil
}

func (s *scenario) actorLoadsSong(ctx context.Context, name, title string) error {
	actor, err := s.actor(name)
	if err != nil {
		return err
	}
	if err := actor.Fogon.LoadSong(title); err != nil {
		return err
	}

	s.stepLogger().InfoContext(ctx, "Actor loaded a song", slog.String("actor", name), slog.String("title", title))
	return nil
}

// actorJoinsSession joins the session started by host. The id stored when host started the
// fogón is reused as is.
func (s *scenario) actorJoinsSession(ctx context.Context, guest, host string) error {
	actor, err := s.actor(guest)
	if err != nil {
		return err
	}
	id, ok := s.sessions[host]
	if !ok {
		return fmt.Errorf("%s has not started a fogon", host)
	}
	logger := s.stepLogger().With(slog.String("actor", guest), slog.String("host", host), slog.String("sessionId", id.Value))
	if id.Synthetic() {
		logger.WarnContext(ctx, "Joining a synthetic session id, the app never issued it")
	}

	if err := actor.Fogon.JoinSession(id.Value); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Actor joined the fogon")
	return nil
}

func (s *scenario) actorGoesToPlay(ctx context.Context, name string) error {
	actor, err := s.actor(name)
	if err != nil {
		return err
	}
	clicked, err := actor.Fogon.GoPlay()
	if err != nil {
		return err
	}

	s.stepLogger().InfoContext(ctx, "Actor went to play", slog.String("actor", name), slog.Bool("clicked", clicked))
	return nil
}

func (s *scenario) actorSeesNowPlaying(ctx context.Context, name, title string) error {
	actor, err := s.actor(name)
	if err != nil {
		return err
	}
	s.nowPlaying = actor.Fogon.NowPlaying()

	if strings.ToLower(s.nowPlaying) != strings.ToLower(title) {
		return &AssertionFailure{
			Expected: title,
			Actual:   s.nowPlaying,
			Actor:    name,
			Message:  "song in playback",
		}
	}

	s.stepLogger().InfoContext(ctx, "Actor sees the song in playback", slog.String("actor", name), slog.String("title", title))
	return nil
}

func (s *scenario) actorReadsSongList(ctx context.Context, name string) error {
	actor, err := s.actor(name)
	if err != nil {
		return err
	}
	songs, err := actor.Songs.Songs()
	if err != nil {
		return err
	}
	s.songs = songs

	s.stepLogger().InfoContext(ctx, "Actor read the song list", slog.String("actor", name), slog.Int("songs", len(songs)))
	return nil
}

func (s *scenario) songListContains(ctx context.Context, title, performer string) error {
	if s.songs == nil {
		return fmt.Errorf("no song list read in this scenario")
	}

	found := lo.ContainsBy(s.songs, func(song pages.Song) bool {
		return strings.EqualFold(song.Title, title) && strings.EqualFold(song.Performer, performer)
	})
	if !found {
		return &AssertionFailure{
			Expected: pages.Song{Title: title, Performer: performer},
			Actual: lo.Map(s.songs, func(song pages.Song, _ int) string {
				return song.String()
			}),
			Message: "song list",
		}
	}
	return nil
}

func (s *scenario) actorPlaysSong(ctx context.Context, name, title string) error {
	return s.rowAction(ctx, name, title, pages.ActionPlay)
}

func (s *scenario) actorUsesRowAction(ctx context.Context, name, actionName, title string) error {
	action, ok := pages.ParseRowAction(actionName)
	if !ok {
		return fmt.Errorf("unknown song action %q", actionName)
	}
	return s.rowAction(ctx, name, title, action)
}

func (s *scenario) rowAction(ctx context.Context, name, title string, action pages.RowAction) error {
	actor, err := s.actor(name)
	if err != nil {
		return err
	}
	ok, err := actor.Songs.Act(title, action)
	if err != nil {
		return err
	}
	if !ok {
		return &AssertionFailure{
			Expected: string(action),
			Actual:   "song or control not found",
			Actor:    name,
			Message:  fmt.Sprintf("action for song %q", title),
		}
	}

	s.stepLogger().InfoContext(ctx, "Actor used a song action", slog.String("actor", name), slog.String("title", title), slog.String("action", string(action)))
	return nil
}
