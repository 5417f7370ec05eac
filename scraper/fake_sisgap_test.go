package scraper

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testUser     = "profe"
	testPassword = "secret"
	testCentre   = "VIGOZA"
	testCookie   = "JSESSIONID=0A1B2C3D"
)

type recordedRequest struct {
	Method  string
	Path    string
	Query   url.Values
	Form    url.Values
	Header  http.Header
	Referer string
	Cookie  string
}

// fakeSISGAP imitates the staff portal: cookie on the landing page, a
// login form that bounces wrong credentials, and per-date timetable pages.
type fakeSISGAP struct {
	server *httptest.Server

	mu        sync.Mutex
	requests  []recordedRequest
	noCookie  bool
	timetable map[string]string
	roster    string
	// failing makes the timetable page for that fecha drop the connection.
	failing map[string]bool
	// onTimetable runs before a timetable page is served.
	onTimetable func(r *http.Request)
}

func newFakeSISGAP(t *testing.T) *fakeSISGAP {
	f := &fakeSISGAP{
		timetable: map[string]string{},
		failing:   map[string]bool{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeSISGAP) handle(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.Query(),
		Form:    r.PostForm,
		Header:  r.Header.Clone(),
		Referer: r.Header.Get("Referer"),
		Cookie:  r.Header.Get("Cookie"),
	})
	noCookie := f.noCookie
	f.mu.Unlock()

	switch r.URL.Path {
	case "/sisgap/paginas/profesores/indice.jsp":
		if !noCookie {
			w.Header().Set("Set-Cookie", testCookie+"; Path=/sisgap; HttpOnly")
		}
		fmt.Fprint(w, loginPage)
	case "/sisgap/logon.do":
		if r.PostForm.Get("usuario") != testUser || r.PostForm.Get("password") != testPassword ||
			r.PostForm.Get("centro") != testCentre {
			fmt.Fprint(w, loginPage)
			return
		}
		fmt.Fprint(w, "<html><body>Bienvenido</body></html>")
	case "/sisgap/iniciadaLogon.do":
		fmt.Fprint(w, "<html><body>Menu</body></html>")
	case "/sisgap/cerrarSesion.do":
		fmt.Fprint(w, loginPage)
	case "/sisgap/profesores/solicPasarLista.do":
		fecha := r.URL.Query().Get("fecha")
		f.mu.Lock()
		page, ok := f.timetable[fecha]
		failing := f.failing[fecha]
		hook := f.onTimetable
		f.mu.Unlock()
		if hook != nil {
			hook(r)
		}
		if failing {
			hj, _ := w.(http.Hijacker)
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		if !ok {
			page = dataPage()
		}
		fmt.Fprint(w, page)
	case "/sisgap/profesores/edAsistGrupo.do":
		fmt.Fprint(w, f.roster)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSISGAP) session(t *testing.T, password string) *Session {
	s, err := NewSession(SessionOptions{
		BaseURL: f.server.URL,
		Credentials: Credentials{
			Username: testUser,
			Password: password,
			Centre:   testCentre,
		},
	})
	require.NoError(t, err)
	return s
}

func (f *fakeSISGAP) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeSISGAP) paths() []string {
	var out []string
	for _, r := range f.recorded() {
		out = append(out, r.Method+" "+r.Path)
	}
	return out
}

const loginPage = `<html><body><form action="logon.do" method="post">
<input name="usuario"><input type="password" name="password"><input name="centro">
</form></body></html>`

// dataPage renders eight layout tables followed by the data table holding
// rows. A header row is always present.
func dataPage(rows ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, `<table class="tabla"><tr><td>layout %d</td></tr></table>`, i+1)
	}
	b.WriteString(`<table class="tabla"><tr><th>Grupo</th><th>Materia</th><th>Horario</th><th>Accion</th></tr>`)
	for _, row := range rows {
		b.WriteString(row)
	}
	b.WriteString("</table></body></html>")
	return b.String()
}

func timetableRow(group, subject, hours string, groupID, subjectID int) string {
	return fmt.Sprintf(`<tr><td>%s</td><td>%s</td><td>%s</td><td><a href="javascript:pasarLista(%d,%d)">Pasar lista</a></td></tr>`,
		group, subject, hours, groupID, subjectID)
}

func studentRow(knownAs, first, last string) string {
	return fmt.Sprintf(`<tr><td><input type="checkbox"></td><td>%s</td><td>%s</td><td>%s</td></tr>`, knownAs, first, last)
}
