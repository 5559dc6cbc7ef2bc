package scope

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/ormasoftchile/sjsh/pkg/client"
	"github.com/ormasoftchile/sjsh/pkg/lineedit"
	"github.com/ormasoftchile/sjsh/pkg/shell"
)

const testToken = "3scaletoken1"

// fakeAdmin serves the admin API endpoints used by host and service contexts.
func fakeAdmin(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Query().Get("access_token") != testToken {
				w.WriteHeader(http.StatusForbidden)
				io.WriteString(w, `{"error":"Access denied"}`)
				return
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/admin/api/services.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"services":[
			{"service":{"id":7,"name":"Echo API","system_name":"echo","state":"incomplete"}},
			{"service":{"id":9,"name":"Orders","system_name":"orders","state":"published"}}
		]}`)
	})
	r.Get("/admin/api/services/{id}/metrics.json", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if chi.URLParam(req, "id") != "7" {
			io.WriteString(w, `{"metrics":[]}`)
			return
		}
		io.WriteString(w, `{"metrics":[{"metric":{"id":1,"system_name":"hits","unit":"hit"}}]}`)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func testEnv(t *testing.T) Env {
	t.Helper()
	api, err := client.New(5 * time.Second)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	return Env{API: api}
}

func run(t *testing.T, c shell.Context, line string) shell.Result {
	t.Helper()
	name, args, ok := shell.Tokenize(line)
	if !ok {
		t.Fatalf("blank line %q", line)
	}
	return c.Command(context.Background(), name, args)
}

func expectKind(t *testing.T, res shell.Result, kind shell.OutcomeKind) {
	t.Helper()
	if res.Outcome.Kind != kind {
		t.Fatalf("outcome = %v %q, want %v", res.Outcome.Kind, res.Outcome.Message, kind)
	}
}

// TestRootHostsStaySorted verifies the host list is ordered and unique by URL.
func TestRootHostsStaySorted(t *testing.T) {
	root := NewRoot(Env{})
	for _, u := range []string{"https://c.example", "https://a.example", "https://b.example", "https://a.example"} {
		if _, _, _, err := root.AddHost(u, "tok"); err != nil {
			t.Fatalf("AddHost(%s): %v", u, err)
		}
	}
	hosts := root.Hosts()
	if len(hosts) != 3 {
		t.Fatalf("len = %d, want 3", len(hosts))
	}
	if !slices.IsSortedFunc(hosts, (*Host).Compare) {
		t.Errorf("hosts not sorted: %v", hostURLs(hosts))
	}
	for i := 1; i < len(hosts); i++ {
		if hosts[i].Equal(hosts[i-1]) {
			t.Errorf("duplicate host %s", hosts[i].URL)
		}
	}
}

func hostURLs(hosts []*Host) []string {
	out := make([]string, len(hosts))
	for i, h := range hosts {
		out[i] = h.URL
	}
	return out
}

func TestRootHostCommand(t *testing.T) {
	root := NewRoot(Env{})

	res := run(t, root, "host https://a.example "+testToken)
	expectKind(t, res, shell.SideEffect)
	if res.Outcome.Message != "Host added: https://a.example" || !res.Next.IsStay() {
		t.Errorf("add: %q %v", res.Outcome.Message, res.Next)
	}

	res = run(t, root, "host https://a.example "+testToken)
	expectKind(t, res, shell.NoProgress)

	res = run(t, root, "host https://a.example othertoken")
	expectKind(t, res, shell.SideEffect)
	if res.Outcome.Message != "Replaced token "+testToken+"." {
		t.Errorf("replace message = %q", res.Outcome.Message)
	}
	if h, _ := root.FindHost("https://a.example"); h.Token != "othertoken" {
		t.Errorf("token = %q", h.Token)
	}

	res = run(t, root, "host https://missing.example")
	expectKind(t, res, shell.Failed)
	if !strings.Contains(res.Outcome.Message, "specify a token") {
		t.Errorf("not found message = %q", res.Outcome.Message)
	}

	expectKind(t, run(t, root, "host"), shell.Usage)
	expectKind(t, run(t, root, "host a b c"), shell.Usage)
	expectKind(t, run(t, root, "host not-a-url tok"), shell.Failed)
	expectKind(t, run(t, root, "nope"), shell.NotFound)
}

// TestRootSelectHost verifies selection pushes a context named after the host.
func TestRootSelectHost(t *testing.T) {
	root := NewRoot(Env{})
	run(t, root, "host https://a.example "+testToken)

	res := run(t, root, "host https://a.example")
	expectKind(t, res, shell.SideEffect)
	if !res.Next.IsPush() {
		t.Fatalf("next = %v, want push", res.Next)
	}

	nav := shell.NewNavigator(root, nil)
	nav.Apply(res.Next)
	if got := nav.Active().Prompt(); got != "https://a.example" {
		t.Errorf("prompt = %q", got)
	}
}

// TestHostTokenSharedWithRoot verifies a token change inside a host is seen
// by the root.
func TestHostTokenSharedWithRoot(t *testing.T) {
	root := NewRoot(Env{})
	h, _, _, err := root.AddHost("https://a.example", "old")
	if err != nil {
		t.Fatal(err)
	}
	hc := NewHostContext(h, Env{})

	res := run(t, hc, "token")
	if res.Outcome.Kind != shell.NoProgress || res.Outcome.Message != "old" {
		t.Errorf("token = %v %q", res.Outcome.Kind, res.Outcome.Message)
	}
	res = run(t, hc, "token new")
	expectKind(t, res, shell.SideEffect)
	if got, _ := root.FindHost("https://a.example"); got.Token != "new" {
		t.Errorf("root sees token %q", got.Token)
	}
	if h.Endpoint().Token != "new" {
		t.Errorf("endpoint token = %q", h.Endpoint().Token)
	}
}

func TestRootHostsListing(t *testing.T) {
	root := NewRoot(Env{})
	expectKind(t, run(t, root, "hosts"), shell.NoProgress)

	run(t, root, "host https://b.example abcdefghijkl")
	run(t, root, "host https://a.example xy")
	res := run(t, root, "hosts")
	lines := strings.Split(res.Outcome.Message, "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "https://a.example") {
		t.Fatalf("listing = %q", res.Outcome.Message)
	}
	if strings.Contains(res.Outcome.Message, "abcdefghijkl") {
		t.Errorf("token not masked: %s", res.Outcome.Message)
	}
	if !strings.Contains(lines[2], "abcd********") {
		t.Errorf("mask = %q", lines[2])
	}
}

func newHostContext(t *testing.T, token string) *HostContext {
	t.Helper()
	srv := fakeAdmin(t)
	h, err := NewHost(srv.URL, token)
	if err != nil {
		t.Fatal(err)
	}
	hc := NewHostContext(h, testEnv(t))
	t.Cleanup(func() { hc.Close() })
	return hc
}

// TestHostCallAndInspect drives call and every inspection command over one response.
func TestHostCallAndInspect(t *testing.T) {
	hc := newHostContext(t, testToken)

	for _, cmd := range []string{"response", "body", "json", "jsonpath $.x", "eval status"} {
		res := run(t, hc, cmd)
		if res.Outcome.Kind != shell.Failed || !strings.Contains(res.Outcome.Message, "no response") {
			t.Errorf("%s before call: %v %q", cmd, res.Outcome.Kind, res.Outcome.Message)
		}
	}

	res := run(t, hc, "call GET /admin/api/services.json")
	expectKind(t, res, shell.SideEffect)
	if res.Outcome.Message != "Ok, response status 200." {
		t.Errorf("call message = %q", res.Outcome.Message)
	}

	res = run(t, hc, "response")
	expectKind(t, res, shell.NoProgress)
	if !strings.Contains(res.Outcome.Message, "200 OK") || !strings.Contains(res.Outcome.Message, "application/json") {
		t.Errorf("response = %q", res.Outcome.Message)
	}

	res = run(t, hc, "body")
	if !strings.Contains(res.Outcome.Message, `"Echo API"`) {
		t.Errorf("body = %q", res.Outcome.Message)
	}

	res = run(t, hc, "json")
	expectKind(t, res, shell.NoProgress)
	if !strings.Contains(res.Outcome.Message, "\n  \"services\": [") {
		t.Errorf("json = %q", res.Outcome.Message)
	}

	res = run(t, hc, "jsonpath services[1].service.name")
	if res.Outcome.Message != "Orders" {
		t.Errorf("jsonpath = %v %q", res.Outcome.Kind, res.Outcome.Message)
	}

	res = run(t, hc, "eval len(body.services) + status")
	if res.Outcome.Message != "202" {
		t.Errorf("eval = %v %q", res.Outcome.Kind, res.Outcome.Message)
	}

	expectKind(t, run(t, hc, "eval body.("), shell.Failed)
	expectKind(t, run(t, hc, "call"), shell.Usage)
	expectKind(t, run(t, hc, "call FETCH /x"), shell.Failed)
}

func TestHostCallForbidden(t *testing.T) {
	hc := newHostContext(t, "wrong")

	res := run(t, hc, "call GET /admin/api/services.json")
	expectKind(t, res, shell.SideEffect)
	if res.Outcome.Message != "Ok, response status 403." {
		t.Errorf("call message = %q", res.Outcome.Message)
	}

	res = run(t, hc, "services")
	expectKind(t, res, shell.Failed)
	if !strings.HasPrefix(res.Outcome.Message, "HTTP 403") {
		t.Errorf("services = %q", res.Outcome.Message)
	}
}

// TestHostServiceNavigation walks root > host > service and back.
func TestHostServiceNavigation(t *testing.T) {
	srv := fakeAdmin(t)
	root := NewRoot(testEnv(t))
	run(t, root, "host "+srv.URL+" "+testToken)

	nav := shell.NewNavigator(root, nil)
	ctx := context.Background()

	if out := nav.Dispatch(ctx, "host", []string{srv.URL}); out.Kind != shell.SideEffect {
		t.Fatalf("select host: %v %q", out.Kind, out.Message)
	}

	out := nav.Dispatch(ctx, "service", []string{"7"})
	if out.Kind != shell.Failed || nav.Depth() != 1 {
		t.Fatalf("service before listing: %v depth %d", out.Kind, nav.Depth())
	}

	out = nav.Dispatch(ctx, "services", nil)
	if out.Kind != shell.SideEffect || !strings.Contains(out.Message, "orders") {
		t.Fatalf("services: %v %q", out.Kind, out.Message)
	}

	out = nav.Dispatch(ctx, "service", []string{"7"})
	if out.Kind != shell.SideEffect || nav.Depth() != 2 {
		t.Fatalf("select service: %v depth %d", out.Kind, nav.Depth())
	}
	if got := nav.Active().Prompt(); got != srv.URL+"/services/7" {
		t.Errorf("service prompt = %q", got)
	}

	out = nav.Dispatch(ctx, "show", nil)
	if !strings.Contains(out.Message, "Echo API") {
		t.Errorf("show = %q", out.Message)
	}
	out = nav.Dispatch(ctx, "metrics", nil)
	if out.Kind != shell.SideEffect || !strings.Contains(out.Message, "hits") {
		t.Errorf("metrics = %v %q", out.Kind, out.Message)
	}

	nav.Dispatch(ctx, "back", nil)
	if nav.Depth() != 1 || nav.Active().Prompt() != srv.URL {
		t.Errorf("after back: depth %d prompt %q", nav.Depth(), nav.Active().Prompt())
	}
	expectKind(t, run(t, nav.Active(), "service abc"), shell.Failed)
	expectKind(t, run(t, nav.Active(), "service 42"), shell.Failed)

	nav.Dispatch(ctx, "back", nil)
	if nav.Depth() != 0 || nav.Active().Prompt() != "" {
		t.Errorf("after second back: depth %d prompt %q", nav.Depth(), nav.Active().Prompt())
	}
	nav.Close()
}

// scriptedLines feeds a fixed session to the shell.
type scriptedLines struct {
	lines []string
}

func (s *scriptedLines) ReadLine(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	l := s.lines[0]
	s.lines = s.lines[1:]
	return l, nil
}

// TestSessionScenario runs the add, select, unknown and back sequence through
// the full dispatch loop.
func TestSessionScenario(t *testing.T) {
	var out bytes.Buffer
	root := NewRoot(Env{})
	reader := &scriptedLines{}
	sh := shell.New(root, reader, shell.WithOutput(&out))
	nav := sh.Navigator()
	ctx := context.Background()

	sh.Execute(ctx, "host https://a.example "+testToken)
	if got := out.String(); got != "Side effect: Host added: https://a.example\n" || nav.Depth() != 0 {
		t.Fatalf("add: %q depth %d", got, nav.Depth())
	}

	out.Reset()
	sh.Execute(ctx, "host https://a.example")
	if nav.Depth() != 1 || nav.Active().Prompt() != "https://a.example" {
		t.Fatalf("select: depth %d prompt %q", nav.Depth(), nav.Active().Prompt())
	}

	out.Reset()
	sh.Execute(ctx, "xyz")
	if got := out.String(); got != "Not found: unknown command xyz\n" || nav.Depth() != 1 {
		t.Errorf("unknown: %q depth %d", got, nav.Depth())
	}

	out.Reset()
	sh.Execute(ctx, "back")
	if nav.Depth() != 0 || nav.Active() != shell.Context(root) {
		t.Errorf("back: depth %d prompt %q", nav.Depth(), nav.Active().Prompt())
	}
	if got := sh.Prompt(); got != ">> " {
		t.Errorf("root prompt = %q", got)
	}

	reader.lines = []string{"hosts", "quit"}
	if err := sh.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "https://a.example") || sh.State() != shell.Terminated {
		t.Errorf("run output %q state %v", out.String(), sh.State())
	}
	sh.Close()
}

// TestNetworkCommandsWithoutClient verifies commands needing the API fail
// cleanly when no client is configured.
func TestNetworkCommandsWithoutClient(t *testing.T) {
	h, err := NewHost("https://a.example", testToken)
	if err != nil {
		t.Fatal(err)
	}
	hc := NewHostContext(h, Env{})
	for _, cmd := range []string{"call GET /x", "services"} {
		res := run(t, hc, cmd)
		expectKind(t, res, shell.Failed)
		if !strings.Contains(res.Outcome.Message, "no API client") {
			t.Errorf("%s message = %q", cmd, res.Outcome.Message)
		}
	}

	sc := NewServiceContext(h, Service{ID: 7}, Env{})
	expectKind(t, run(t, sc, "metrics"), shell.Failed)
}

// TestMaskTokenMultibyte verifies masking keeps whole runes.
func TestMaskTokenMultibyte(t *testing.T) {
	got := maskToken("ñçåßsecret")
	if !utf8.ValidString(got) {
		t.Fatalf("invalid UTF-8: %q", got)
	}
	if got != "ñçåß******" {
		t.Errorf("maskToken = %q", got)
	}
	if got := maskToken("ñç"); got != "**" {
		t.Errorf("short token = %q", got)
	}
}

// TestPipedSessionLongLine verifies an oversized piped line does not end the
// session.
func TestPipedSessionLongLine(t *testing.T) {
	input := "host https://a.example " + testToken + "\n" +
		"call POST /x - " + strings.Repeat("a", 70000) + "\n" +
		"hosts\n"
	var out bytes.Buffer
	sh := shell.New(NewRoot(Env{}), lineedit.NewScanner(strings.NewReader(input)), shell.WithOutput(&out))
	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) < 3 {
		t.Fatalf("output = %q", out.String())
	}
	if !strings.HasPrefix(lines[1], "Not found:") {
		t.Errorf("call at root = %q", lines[1])
	}
	if !strings.Contains(out.String(), "https://a.example  3sca") {
		t.Errorf("hosts did not run: %q", out.String())
	}
}

func TestHostCallInlineQuery(t *testing.T) {
	hc := newHostContext(t, testToken)
	res := run(t, hc, "call GET /admin/api/services.json?page=1")
	if res.Outcome.Message != "Ok, response status 200." {
		t.Errorf("call message = %q", res.Outcome.Message)
	}
}
