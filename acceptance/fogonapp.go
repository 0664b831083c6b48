//go:build acceptance
// +build acceptance

package acceptance

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofrs/uuid"
)

// FogonApp is a small stand-in for the fogón web app. It renders the controls, the song
// table and the current song with the markup the page objects expect. State is kept in
// memory, so every actor of a test sees the same fogones.
type FogonApp struct {
	Server *httptest.Server
	URL    string

	mu      sync.Mutex
	fogones map[string]*Fogon
	logger  *slog.Logger
}

// Fogon is one session of the app.
type Fogon struct {
	ID      string
	Songs   []catalogSong
	Current string
}

type catalogSong struct {
	Title     string
	Performer string
	Duration  string
	Key       string
}

var catalog = map[string]catalogSong{
	"adiós nonino":          {Title: "Adiós Nonino", Performer: "Astor Piazzolla", Duration: "8:05", Key: "Am"},
	"zamba de mi esperanza": {Title: "Zamba de mi esperanza", Performer: "Luis Morales", Duration: "3:12", Key: "Em"},
	"la cumparsita":         {Title: "La cumparsita", Performer: "Gerardo Matos Rodríguez", Duration: "3:30", Key: "Gm"},
}

func lookupSong(title string) catalogSong {
	if song, ok := catalog[strings.ToLower(strings.TrimSpace(title))]; ok {
		return song
	}
	return catalogSong{Title: strings.TrimSpace(title), Performer: "Desconocido", Duration: "-", Key: "-"}
}

var pageTemplate = template.Must(template.New("fogon").Parse(`<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><title>{{if .}}Fogón {{.ID}}{{else}}Fogón{{end}}</title></head>
<body>
{{if not .}}
<h1>Fogón</h1>
<form method="post" action="/fogones"><button type="submit">Iniciar Fogón</button></form>
<form method="get" action="/unirse">
  <input type="text" name="fogon" placeholder="ID del fogón">
  <button type="submit">Unirse a Fogón</button>
</form>
{{else}}
<h1>Fogón</h1>
<p>ID: <span class="fogon-id" data-fogon-id="{{.ID}}">{{.ID}}</span></p>
<p>Sonando: <span id="cancion-actual">{{.Current}}</span></p>
<form method="get" action="/fogon/{{.ID}}/tocar"><button type="submit">Ir a tocar</button></form>
<form method="post" action="/fogon/{{.ID}}/canciones">
  <input type="text" name="titulo" placeholder="Nombre de la canción">
  <button type="submit">Cargar Canción</button>
</form>
<table class="tabla-canciones">
  <thead><tr><th>Canción</th><th>Duración</th><th>Tono</th></tr></thead>
  <tbody>
  {{range .Songs}}
    <tr onclick="expandir(this)">
      <td>{{.Performer}}<div class="textoGrande">{{.Title}}</div></td>
      <td>{{.Duration}}</td>
      <td><span>{{.Key}}</span></td>
      <template>
        <tr data-detail><td colspan="3">
          <form method="post" action="/fogon/{{$.ID}}/sonando">
            <input type="hidden" name="titulo" value="{{.Title}}">
            <button type="submit">▶ Tocar</button>
          </form>
          <button type="button">🔗 Compartir</button>
        </td></tr>
      </template>
    </tr>
  {{end}}
  </tbody>
</table>
<script>
function expandir(row) {
  if (row.classList.contains("seleccionado")) return;
  row.classList.add("seleccionado");
  row.after(row.querySelector("template").content.cloneNode(true));
}
setInterval(async () => {
  const res = await fetch("/fogon/{{.ID}}/actual");
  if (res.ok) document.getElementById("cancion-actual").textContent = (await res.json()).titulo;
}, 100);
</script>
{{end}}
</body>
</html>
`))

// NewFogonApp starts the app on a local port. It is closed with the test.
func NewFogonApp(t *testing.T) *FogonApp {
	t.Helper()

	app := &FogonApp{
		fogones: make(map[string]*Fogon),
		logger:  slog.Default().With("component", "fogon-app"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", app.home)
	mux.HandleFunc("POST /fogones", app.startFogon)
	mux.HandleFunc("GET /unirse", app.join)
	mux.HandleFunc("GET /fogon/{id}", app.show)
	mux.HandleFunc("GET /fogon/{id}/tocar", app.show)
	mux.HandleFunc("POST /fogon/{id}/canciones", app.loadSong)
	mux.HandleFunc("POST /fogon/{id}/sonando", app.playSong)
	mux.HandleFunc("GET /fogon/{id}/actual", app.current)

	app.Server = httptest.NewServer(mux)
	app.URL = app.Server.URL
	t.Cleanup(app.Server.Close)
	return app
}

// Snapshot returns a copy of the fogón with id.
func (a *FogonApp) Snapshot(id string) (Fogon, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	f, ok := a.fogones[id]
	if !ok {
		return Fogon{}, false
	}
	c := *f
	c.Songs = append([]catalogSong(nil), f.Songs...)
	return c, true
}

func (a *FogonApp) home(w http.ResponseWriter, r *http.Request) {
	a.render(w, nil)
}

func (a *FogonApp) startFogon(w http.ResponseWriter, r *http.Request) {
	id := fmt.Sprintf("%x", uuid.Must(uuid.NewV4()).Bytes()[:6])

	a.mu.Lock()
	a.fogones[id] = &Fogon{ID: id}
	a.mu.Unlock()

	a.logger.Debug("Fogon started", slog.String("id", id))
	http.Redirect(w, r, "/fogon/"+id, http.StatusSeeOther)
}

func (a *FogonApp) join(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("fogon"))
	if _, ok := a.Snapshot(id); !ok {
		http.Error(w, "fogón no encontrado", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/fogon/"+id, http.StatusSeeOther)
}

func (a *FogonApp) show(w http.ResponseWriter, r *http.Request) {
	f, ok := a.Snapshot(r.PathValue("id"))
	if !ok {
		http.Error(w, "fogón no encontrado", http.StatusNotFound)
		return
	}
	a.render(w, &f)
}

func (a *FogonApp) loadSong(w http.ResponseWriter, r *http.Request) {
	a.update(w, r, func(f *Fogon, title string) {
		song := lookupSong(title)
		f.Songs = append(f.Songs, song)
		f.Current = song.Title
	})
}

func (a *FogonApp) playSong(w http.ResponseWriter, r *http.Request) {
	a.update(w, r, func(f *Fogon, title string) {
		f.Current = lookupSong(title).Title
	})
}

func (a *FogonApp) update(w http.ResponseWriter, r *http.Request, fn func(f *Fogon, title string)) {
	id := r.PathValue("id")
	title := r.FormValue("titulo")
	if strings.TrimSpace(title) == "" {
		http.Error(w, "falta el título", http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	f, ok := a.fogones[id]
	if ok {
		fn(f, title)
	}
	a.mu.Unlock()
	if !ok {
		http.Error(w, "fogón no encontrado", http.StatusNotFound)
		return
	}

	a.logger.Debug("Fogon updated", slog.String("id", id), slog.String("title", title), slog.String("path", r.URL.Path))
	http.Redirect(w, r, "/fogon/"+id, http.StatusSeeOther)
}

func (a *FogonApp) current(w http.ResponseWriter, r *http.Request) {
	f, ok := a.Snapshot(r.PathValue("id"))
	if !ok {
		http.Error(w, "fogón no encontrado", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"titulo": f.Current})
}

func (a *FogonApp) render(w http.ResponseWriter, f *Fogon) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, f); err != nil {
		a.logger.Error("Rendering page", slog.Any("error", err))
	}
}
