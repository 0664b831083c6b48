package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/fogonqa/actors"
	"github.com/networkteam/fogonqa/capture"
	"github.com/networkteam/fogonqa/config"
	"github.com/networkteam/fogonqa/docstore"
	"github.com/networkteam/fogonqa/httpcheck"
	"github.com/networkteam/fogonqa/pages"
)

type recordedStep struct {
	expr *regexp.Regexp
	fn   interface{}
}

type fakeRegistrar struct {
	steps  []recordedStep
	before []godog.BeforeScenarioHook
	after  []godog.AfterScenarioHook
}

func (r *fakeRegistrar) Step(expr, stepFunc interface{}) {
	r.steps = append(r.steps, recordedStep{expr: regexp.MustCompile(expr.(string)), fn: stepFunc})
}

func (r *fakeRegistrar) Before(h godog.BeforeScenarioHook) {
	r.before = append(r.before, h)
}

func (r *fakeRegistrar) After(h godog.AfterScenarioHook) {
	r.after = append(r.after, h)
}

func (r *fakeRegistrar) matching(text string) []recordedStep {
	var matched []recordedStep
	for _, step := range r.steps {
		if step.expr.MatchString(text) {
			matched = append(matched, step)
		}
	}
	return matched
}

func TestStepVocabulary(t *testing.T) {
	reg := &fakeRegistrar{}
	newScenario(Options{}).register(reg)

	require.Len(t, reg.before, 1)
	require.Len(t, reg.after, 1)

	tests := []struct {
		text string
		args []string
	}{
		{text: `"Lucho" accede a la aplicacion`, args: []string{"Lucho"}},
		{text: `"Lucho" inicia un fogon`, args: []string{"Lucho"}},
		{text: `"Lucho" carga la cancion "Adios Nonino"`, args: []string{"Lucho", "Adios Nonino"}},
		{text: `"Ana" se une al fogon de "Lucho"`, args: []string{"Ana", "Lucho"}},
		{text: `"Ana" va a tocar`, args: []string{"Ana"}},
		{text: `"Ana" ve la cancion "Adios Nonino" en reproduccion`, args: []string{"Ana", "Adios Nonino"}},
		{text: `"Ana" ve la lista de canciones`, args: []string{"Ana"}},
		{text: `la lista de canciones contiene "Zamba de mi esperanza" de "Luis Morales"`, args: []string{"Zamba de mi esperanza", "Luis Morales"}},
		{text: `"Ana" toca la cancion "Zamba de mi esperanza"`, args: []string{"Ana", "Zamba de mi esperanza"}},
		{text: `"Ana" usa "Compartir" en la cancion "Zamba de mi esperanza"`, args: []string{"Ana", "Compartir", "Zamba de mi esperanza"}},
		{text: `I navigate to Google`},
		{text: `I search for the configured search term`},
		{text: `I search for "Playwright testing"`, args: []string{"Playwright testing"}},
		{text: `I should see search results`},
		{text: `the search results should contain the search term`},
		{text: `the search results should contain "Playwright"`, args: []string{"Playwright"}},
		{text: `the application is running`},
		{text: `I set the header "Authorization" to "Bearer x"`, args: []string{"Authorization", "Bearer x"}},
		{text: `I set the request body to:`},
		{text: `I send a DELETE request to "/api/songs/1"`, args: []string{"DELETE", "/api/songs/1"}},
		{text: `the response status code should be 204`, args: []string{"204"}},
		{text: `the response should contain "ok"`, args: []string{"ok"}},
		{text: `the response should be a valid JSON`},
		{text: `the response field "song.title" should be "Zamba"`, args: []string{"song.title", "Zamba"}},
		{text: `the response should have field "id"`, args: []string{"id"}},
		{text: `the request should have failed`},
		{text: `the database collection "songs" is empty`, args: []string{"songs"}},
		{text: `the database collection "songs" contains:`, args: []string{"songs"}},
		{text: `I have a document with:`},
		{text: `I insert the document into collection "songs"`, args: []string{"songs"}},
		{text: `I query collection "songs" for:`, args: []string{"songs"}},
		{text: `I query collection "songs" for all documents`, args: []string{"songs"}},
		{text: `I update documents in collection "songs" matching:`, args: []string{"songs"}},
		{text: `I delete documents from collection "songs" matching:`, args: []string{"songs"}},
		{text: `I count documents in collection "songs"`, args: []string{"songs"}},
		{text: `the collection "songs" should have 2 document(s)`, args: []string{"songs", "2"}},
		{text: `the collection "songs" should have 1 document`, args: []string{"songs", "1"}},
		{text: `the document count should be 3`, args: []string{"3"}},
		{text: `the query should return 2 document(s)`, args: []string{"2"}},
		{text: `the query result should contain a document with "title" equal to "Zamba"`, args: []string{"title", "Zamba"}},
		{text: `the insert should succeed`},
		{text: `the update should modify 1 document(s)`, args: []string{"1"}},
		{text: `the delete should remove 0 documents`, args: []string{"0"}},
		{text: `the database operation should have failed`},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			matched := reg.matching(tt.text)
			require.Len(t, matched, 1, "exactly one step must bind")

			groups := matched[0].expr.FindStringSubmatch(tt.text)[1:]
			if tt.args == nil {
				assert.Empty(t, groups)
			} else {
				assert.Equal(t, tt.args, groups)
			}
		})
	}

	for _, text := range []string{
		`Lucho accede a la aplicacion`,
		`"Lucho" accede a la aplicación`,
		`I send a PATCH request to "/api"`,
		`"Lucho" inicia un fogon ahora`,
	} {
		assert.Empty(t, reg.matching(text), "%q must not bind", text)
	}
}

func startScenario(t *testing.T, opts Options) (*scenario, context.Context) {
	t.Helper()

	s := newScenario(opts)
	ctx, err := s.before(context.Background(), &godog.Scenario{Name: t.Name()})
	require.NoError(t, err)
	return s, ctx
}

func docString(content string) *godog.DocString {
	return &godog.DocString{Content: content}
}

func TestFogonSteps_JoinReusesSessionID(t *testing.T) {
	factory := newFakeFactory(`<html><body><h4>Adiós Nonino</h4><p>adios nonino</p></body></html>`)
	s, ctx := startScenario(t, Options{
		Settings: config.RunSettings{BaseURL: "http://localhost:3000/fogon/s1"},
		Contexts: factory,
	})

	require.NoError(t, s.actorOpensApp(ctx, "Lucho"))
	require.NoError(t, s.actorStartsSession(ctx, "Lucho"))
	require.NoError(t, s.actorOpensApp(ctx, "Ana"))
	require.NoError(t, s.actorJoinsSession(ctx, "Ana", "Lucho"))

	assert.Equal(t, pages.SessionID{Value: "s1", Source: pages.IDFromURL}, s.sessions["Lucho"])

	contexts := factory.Contexts()
	require.Len(t, contexts, 2)
	guestVisits := contexts[1].page.Visits()
	require.Len(t, guestVisits, 2)
	joined, err := url.Parse(guestVisits[1])
	require.NoError(t, err)
	assert.Equal(t, "s1", joined.Query().Get("fogon"), "the guest joins with the host's id")

	require.NoError(t, s.actorGoesToPlay(ctx, "Ana"))
	require.NoError(t, s.actorSeesNowPlaying(ctx, "Ana", "Adios Nonino"))

	err = s.actorSeesNowPlaying(ctx, "Ana", "Libertango")
	var failure *AssertionFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "Ana", failure.Actor)
	assert.Equal(t, "Libertango", failure.Expected)
	assert.Equal(t, "adios nonino", failure.Actual)
}

func TestFogonSteps_SyntheticSessionID(t *testing.T) {
	var logs bytes.Buffer
	factory := newFakeFactory(`<html><body></body></html>`)
	s, ctx := startScenario(t, Options{
		Settings: config.RunSettings{BaseURL: "http://localhost:3000/"},
		Contexts: factory,
		Logger:   slog.New(slog.NewTextHandler(&logs, nil)),
	})

	require.NoError(t, s.actorOpensApp(ctx, "Host"))
	require.NoError(t, s.actorStartsSession(ctx, "Host"))
	require.NoError(t, s.actorOpensApp(ctx, "Guest"))

	hostID := s.sessions["Host"]
	require.True(t, hostID.Synthetic())

	require.NoError(t, s.actorJoinsSession(ctx, "Guest", "Host"))
	assert.Equal(t, hostID, s.sessions["Host"], "joining never regenerates the id")
	assert.Contains(t, logs.String(), "Joining a synthetic session id")

	guestVisits := factory.Contexts()[1].page.Visits()
	assert.Contains(t, guestVisits[len(guestVisits)-1], "fogon="+hostID.Value)
}

func TestFogonSteps_Errors(t *testing.T) {
	t.Run("unknown actor", func(t *testing.T) {
		s, ctx := startScenario(t, Options{Contexts: newFakeFactory("")})

		err := s.actorStartsSession(ctx, "Beto")
		var unknown *actors.UnknownActorError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "Beto", unknown.Name)
	})

	t.Run("host without session", func(t *testing.T) {
		s, ctx := startScenario(t, Options{Contexts: newFakeFactory("")})
		require.NoError(t, s.actorOpensApp(ctx, "Ana"))

		assert.EqualError(t, s.actorJoinsSession(ctx, "Ana", "Lucho"), "Lucho has not started a fogon")
	})

	t.Run("browser disabled", func(t *testing.T) {
		s, ctx := startScenario(t, Options{})

		assert.ErrorIs(t, s.actorOpensApp(ctx, "Ana"), ErrBrowserDisabled)
		assert.ErrorIs(t, s.navigateToSearch(ctx), ErrBrowserDisabled)
	})

	t.Run("song list not read", func(t *testing.T) {
		s, ctx := startScenario(t, Options{})
		assert.Error(t, s.songListContains(ctx, "Zamba", "Luis Morales"))
	})

	t.Run("unknown row action", func(t *testing.T) {
		s, ctx := startScenario(t, Options{Contexts: newFakeFactory("")})
		assert.EqualError(t, s.actorUsesRowAction(ctx, "Ana", "Bailar", "Zamba"), `unknown song action "Bailar"`)
	})
}

func TestSongListContains(t *testing.T) {
	s, ctx := startScenario(t, Options{})
	s.songs = []pages.Song{
		{Performer: "Luis Morales", Title: "Zamba de mi esperanza", Duration: "3:10", Key: "Am"},
		{Performer: "Astor Piazzolla", Title: "Adiós Nonino", Duration: "7:50", Key: "Bbm"},
	}

	assert.NoError(t, s.songListContains(ctx, "zamba de mi esperanza", "LUIS MORALES"))

	err := s.songListContains(ctx, "Libertango", "Astor Piazzolla")
	var failure *AssertionFailure
	require.ErrorAs(t, err, &failure)
	assert.Len(t, failure.Actual, 2)
}

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/songs", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"42","song":` + string(body) + `,"auth":"` + r.Header.Get("Authorization") + `"}`))
		default:
			_, _ = w.Write([]byte(`[{"id":"42"}]`))
		}
	})
	mux.HandleFunc("/api/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestAPISteps(t *testing.T) {
	server := newAPIServer(t)
	client, err := httpcheck.NewClient(server.URL, httpcheck.WithTransport(capture.Transport(nil)))
	require.NoError(t, err)
	s, ctx := startScenario(t, Options{HTTP: client})

	require.NoError(t, s.applicationIsRunning(ctx))
	assert.True(t, s.appRunning)

	require.NoError(t, s.setHeader("Authorization", "Bearer secret"))
	require.NoError(t, s.setRequestBody(docString("title: Zamba\nkey: Am\n")))
	require.NoError(t, s.sendRequest(ctx, http.MethodPost, "/api/songs"))

	assert.NoError(t, s.statusCodeShouldBe(201))
	assert.NoError(t, s.responseShouldBeJSON())
	assert.NoError(t, s.responseShouldContain(`"title":"Zamba"`))
	assert.NoError(t, s.responseFieldShouldBe("song.key", "Am"))
	assert.NoError(t, s.responseFieldShouldBe("auth", "Bearer secret"))
	assert.NoError(t, s.responseShouldHaveField("id"))

	var failure *AssertionFailure
	assert.ErrorAs(t, s.statusCodeShouldBe(200), &failure)
	assert.ErrorAs(t, s.responseFieldShouldBe("song.title", "Chacarera"), &failure)
	assert.ErrorAs(t, s.responseShouldHaveField("song.artist"), &failure)
	assert.ErrorAs(t, s.requestShouldHaveFailed(), &failure)

	require.NoError(t, s.sendRequest(ctx, http.MethodGet, "/api/missing"))
	assert.NoError(t, s.statusCodeShouldBe(404), "error statuses are responses")
	assert.ErrorAs(t, s.responseShouldBeJSON(), &failure)

	assert.Len(t, s.recorder.Exchanges(), 3, "ping and both requests are captured")
}

func TestAPISteps_TransportFailure(t *testing.T) {
	server := newAPIServer(t)
	client, err := httpcheck.NewClient(server.URL)
	require.NoError(t, err)
	server.Close()

	s, ctx := startScenario(t, Options{HTTP: client})

	require.NoError(t, s.applicationIsRunning(ctx), "an unreachable app only warns")
	assert.False(t, s.appRunning)

	require.NoError(t, s.sendRequest(ctx, http.MethodGet, "/api/songs"), "the failure is kept in the scenario")
	assert.NoError(t, s.requestShouldHaveFailed())

	var serviceErr *ExternalServiceError
	require.ErrorAs(t, s.lastErr, &serviceErr)
	assert.Equal(t, "http", serviceErr.Service)
	assert.Equal(t, "GET /api/songs", serviceErr.Operation)

	var failure *AssertionFailure
	require.ErrorAs(t, s.statusCodeShouldBe(200), &failure)
	assert.Contains(t, failure.Actual, "GET /api/songs")
}

func openTestStore(t *testing.T) docstore.Store {
	t.Helper()

	ctx := context.Background()
	store, err := docstore.OpenSQLite(ctx, filepath.Join(t.TempDir(), "steps.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})
	return store
}

func TestDatabaseSteps(t *testing.T) {
	s, ctx := startScenario(t, Options{Store: openTestStore(t)})

	require.NoError(t, s.collectionContains(ctx, "songs", docString(`[
		{"title": "Zamba de mi esperanza", "performer": "Luis Morales", "plays": 3},
		{"title": "Adiós Nonino", "performer": "Astor Piazzolla", "plays": 7}
	]`)))
	assert.NoError(t, s.collectionShouldHave(ctx, "songs", 2))

	require.NoError(t, s.haveDocument(docString("title: Libertango\nperformer: Astor Piazzolla\nplays: 1\n")))
	require.NoError(t, s.insertDocument(ctx, "songs"))
	assert.NoError(t, s.insertShouldSucceed())

	require.NoError(t, s.queryCollection(ctx, "songs", docString(`{"performer": "Astor Piazzolla"}`)))
	assert.NoError(t, s.queryShouldReturn(2))
	assert.NoError(t, s.queryResultContains("title", "Libertango"))
	assert.NoError(t, s.queryResultContains("plays", "7"), "numbers compare by their string form")
	var failure *AssertionFailure
	assert.ErrorAs(t, s.queryResultContains("title", "Chacarera"), &failure)

	require.NoError(t, s.updateDocuments(ctx, "songs", docString(`{"query": {"title": "Libertango"}, "update": {"plays": 2}}`)))
	assert.NoError(t, s.updateShouldModify(1))
	require.NoError(t, s.updateDocuments(ctx, "songs", docString(`{"query": {"title": "Libertango"}, "update": {"plays": 2}}`)))
	assert.NoError(t, s.updateShouldModify(0), "setting equal values modifies nothing")

	require.NoError(t, s.deleteDocuments(ctx, "songs", docString(`{"performer": "Astor Piazzolla"}`)))
	assert.NoError(t, s.deleteShouldRemove(2))

	require.NoError(t, s.countDocuments(ctx, "songs"))
	assert.NoError(t, s.documentCountShouldBe(1))
	assert.ErrorAs(t, s.documentCountShouldBe(3), &failure)

	require.NoError(t, s.queryAll(ctx, "songs"))
	assert.NoError(t, s.queryShouldReturn(1))

	require.NoError(t, s.collectionIsEmpty(ctx, "songs"))
	assert.NoError(t, s.collectionShouldHave(ctx, "songs", 0))
}

func TestDatabaseSteps_FailuresAreKept(t *testing.T) {
	s, ctx := startScenario(t, Options{Store: openTestStore(t)})

	require.NoError(t, s.queryCollection(ctx, "songs", docString(`{"plays": {"$gt": 1}}`)))

	var serviceErr *ExternalServiceError
	require.ErrorAs(t, s.lastErr, &serviceErr)
	assert.Equal(t, "store", serviceErr.Service)
	assert.ErrorIs(t, serviceErr, docstore.ErrUnsupportedFilter)
	assert.NoError(t, s.databaseOperationShouldHaveFailed())

	var failure *AssertionFailure
	require.ErrorAs(t, s.queryShouldReturn(0), &failure, "a failed query is not an empty result")
	assert.Contains(t, failure.Actual, "unsupported filter")
}

func TestDatabaseSteps_FailedOperationsFailCountAssertions(t *testing.T) {
	s, ctx := startScenario(t, Options{Store: openTestStore(t)})

	require.NoError(t, s.collectionContains(ctx, "songs", docString(`[
		{"title": "Libertango", "n": 1},
		{"title": "Oblivion", "n": 2}
	]`)))
	filter := `{"n": {"$gt": 0}}`

	var failure *AssertionFailure

	require.NoError(t, s.queryCollection(ctx, "songs", docString(filter)))
	assert.NoError(t, s.databaseOperationShouldHaveFailed())
	assert.ErrorAs(t, s.queryShouldReturn(0), &failure)

	require.NoError(t, s.updateDocuments(ctx, "songs", docString(`{"query": `+filter+`, "update": {"n": 5}}`)))
	assert.NoError(t, s.databaseOperationShouldHaveFailed())
	assert.ErrorAs(t, s.updateShouldModify(0), &failure)

	require.NoError(t, s.deleteDocuments(ctx, "songs", docString(filter)))
	assert.NoError(t, s.databaseOperationShouldHaveFailed())
	assert.ErrorAs(t, s.deleteShouldRemove(0), &failure)

	assert.NoError(t, s.collectionShouldHave(ctx, "songs", 2), "nothing was deleted")

	require.NoError(t, s.countDocuments(ctx, "songs"))
	assert.ErrorAs(t, s.databaseOperationShouldHaveFailed(), &failure, "the count succeeded")
	assert.NoError(t, s.documentCountShouldBe(2))
}

func TestDatabaseSteps_InvalidInput(t *testing.T) {
	s, ctx := startScenario(t, Options{Store: openTestStore(t)})

	assert.Error(t, s.haveDocument(docString(`["not", "an", "object"]`)))
	assert.Error(t, s.insertDocument(ctx, "songs"), "no document given")
	assert.Error(t, s.updateDocuments(ctx, "songs", docString(`{"query": {"title": "x"}}`)))
	assert.Error(t, s.collectionContains(ctx, "songs", docString(`[1, 2]`)))
}

func TestDatabaseSteps_SkippedWithoutStore(t *testing.T) {
	s, ctx := startScenario(t, Options{})

	assert.ErrorIs(t, s.collectionIsEmpty(ctx, "songs"), godog.ErrSkip)
	assert.ErrorIs(t, s.countDocuments(ctx, "songs"), godog.ErrSkip)
}

func TestParseDocString(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    any
	}{
		{name: "json object", content: `{"title": "Zamba", "plays": 3}`, want: map[string]any{"title": "Zamba", "plays": float64(3)}},
		{name: "yaml object", content: "title: Zamba\nplays: 3\ntags: [folk]", want: map[string]any{"title": "Zamba", "plays": float64(3), "tags": []any{"folk"}}},
		{name: "json array", content: `[{"a": 1}]`, want: []any{map[string]any{"a": float64(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDocString(docString(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseDocString(nil)
	assert.Error(t, err)
	_, err = parseDocString(docString("{unclosed"))
	assert.Error(t, err)
}

func TestAfter_WritesDiagnosticsOnFailure(t *testing.T) {
	dir := t.TempDir()
	var report bytes.Buffer
	s, ctx := startScenario(t, Options{
		Settings:     config.RunSettings{BaseURL: "http://localhost:3000/", DiagnosticsDir: dir},
		Contexts:     newFakeFactory("<html></html>"),
		ReportWriter: &report,
	})
	require.NoError(t, s.actorOpensApp(ctx, "Lucho"))

	_, err := s.after(ctx, &godog.Scenario{Name: t.Name()}, errors.New("boom"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Len(t, names, 2)
	assert.True(t, strings.HasSuffix(names[0], ".log") || strings.HasSuffix(names[1], ".log"))
	assert.Contains(t, strings.Join(names, " "), "-lucho.png")

	assert.Contains(t, report.String(), "Scenario: "+t.Name())
	assert.Contains(t, report.String(), "Actor opened the app")
	assert.True(t, s.actors == nil || len(s.actors.Actors()) == 0, "actors are closed after the scenario")
}

func TestAfter_ClosesActorsOnSuccess(t *testing.T) {
	dir := t.TempDir()
	factory := newFakeFactory("")
	s, ctx := startScenario(t, Options{
		Settings: config.RunSettings{DiagnosticsDir: dir},
		Contexts: factory,
	})
	require.NoError(t, s.actorOpensApp(ctx, "Lucho"))

	_, err := s.after(ctx, &godog.Scenario{Name: t.Name()}, nil)
	require.NoError(t, err)

	assert.True(t, factory.Contexts()[0].Closed())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no diagnostics for passing scenarios")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "dos-usuarios-tocan-juntos", slugify("Dos usuarios tocan juntos!"))
	assert.Equal(t, "scenario", slugify("¡¿?!"))
}

const suiteFeature = `Feature: API and database

  Scenario: Songs are stored and served
    Given the application is running
    And the database collection "songs" contains:
      """
      - title: Zamba de mi esperanza
        performer: Luis Morales
      """
    And I have a document with:
      """
      {"title": "Libertango", "performer": "Astor Piazzolla"}
      """
    When I insert the document into collection "songs"
    Then the insert should succeed
    And the collection "songs" should have 2 document(s)
    When I set the request body to:
      """
      {"title": "Libertango"}
      """
    And I send a POST request to "/api/songs"
    Then the response status code should be 201
    And the response field "song.title" should be "Libertango"
`

func TestSuite_APIAndDatabase(t *testing.T) {
	server := newAPIServer(t)
	client, err := httpcheck.NewClient(server.URL, httpcheck.WithTimeout(5*time.Second))
	require.NoError(t, err)
	store := openTestStore(t)

	var out bytes.Buffer
	status := godog.TestSuite{
		Name: "steps",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			InitializeScenario(sc, Options{HTTP: client, Store: store, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
		},
		Options: &godog.Options{
			Format:          "progress",
			Output:          &out,
			Strict:          true,
			FeatureContents: []godog.Feature{{Name: "api.feature", Contents: []byte(suiteFeature)}},
		},
	}.Run()

	assert.Equal(t, 0, status, out.String())
}

func TestAssertionFailure_Error(t *testing.T) {
	err := &AssertionFailure{Expected: "Zamba", Actual: "Libertango", Actor: "Ana", Message: "song in playback"}
	assert.EqualError(t, err, "Ana: song in playback (expected Zamba, got Libertango)")

	data, jsonErr := json.Marshal(err.Expected)
	require.NoError(t, jsonErr)
	assert.JSONEq(t, `"Zamba"`, string(data))
}
