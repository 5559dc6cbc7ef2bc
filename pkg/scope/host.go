package scope

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ormasoftchile/sjsh/pkg/client"
	"github.com/ormasoftchile/sjsh/pkg/query"
	"github.com/ormasoftchile/sjsh/pkg/render"
	"github.com/ormasoftchile/sjsh/pkg/shell"
)

// Host is a known 3scale endpoint. Identity and ordering depend on the URL
// string alone; the token is not part of it.
type Host struct {
	URL   string
	Token string

	endpoint client.Endpoint
}

// NewHost validates rawURL and builds a host entry.
func NewHost(rawURL, token string) (*Host, error) {
	ep, err := client.ParseEndpoint(rawURL, token)
	if err != nil {
		return nil, err
	}
	return &Host{URL: rawURL, Token: token, endpoint: ep}, nil
}

// SetToken replaces the token and returns the previous one.
func (h *Host) SetToken(token string) string {
	prev := h.Token
	h.Token = token
	return prev
}

// Endpoint returns where requests for this host go, with the current token.
func (h *Host) Endpoint() client.Endpoint {
	ep := h.endpoint
	ep.Token = h.Token
	return ep
}

// Compare orders hosts by URL string.
func (h *Host) Compare(other *Host) int {
	return strings.Compare(h.URL, other.URL)
}

// Equal reports whether both entries name the same URL.
func (h *Host) Equal(other *Host) bool {
	return h.URL == other.URL
}

const (
	usageToken    = "token [<new-token>]"
	usageCall     = "call <GET|POST|PUT|PATCH|DELETE> <path> [<query>|-] [<body>...]"
	usageJSONPath = "jsonpath <expression>"
	usageEval     = "eval <expression>"
	usageService  = "service <id>"
)

const hostHelp = `
Commands for a selected host. Requests are authenticated with the host token.

- ` + "`token [<new-token>]`" + `: show or replace the access token
- ` + "`call <method> <path> [<query>|-] [<body>...]`" + `: send a request to the admin API
- ` + "`response`" + `: status of the last response
- ` + "`body`" + `: raw body of the last response
- ` + "`json`" + `: pretty-printed body of the last response
- ` + "`jsonpath <expression>`" + `: query the last response, e.g. ` + "`$.services[0].service.id`" + `
- ` + "`eval <expression>`" + `: evaluate an expression over ` + "`body`, `status` and `host`" + `
- ` + "`services`" + `: list the services of this account
- ` + "`service <id>`" + `: select a service listed by ` + "`services`" + `
- ` + "`back`" + `: return to the host list
`

// HostContext is the scope of one selected host. It shares the Host entry with
// the root context and owns the last response and the service list.
type HostContext struct {
	host *Host
	env  Env

	last     *client.Response
	services []Service
}

// NewHostContext wraps h.
func NewHostContext(h *Host, env Env) *HostContext {
	return &HostContext{host: h, env: env}
}

// Prompt is the host URL as entered.
func (c *HostContext) Prompt() string {
	return c.host.URL
}

// Commands lists the commands understood by a host.
func (c *HostContext) Commands() []string {
	return []string{"back", "body", "call", "eval", "json", "jsonpath", "response", "service", "services", "token"}
}

// Help returns the markdown help for a host.
func (c *HostContext) Help() string {
	return hostHelp
}

// Close releases the cached response.
func (c *HostContext) Close() error {
	return c.replaceResponse(nil)
}

// Command dispatches one host command.
func (c *HostContext) Command(ctx context.Context, name string, args []string) shell.Result {
	switch name {
	case "token":
		return c.cmdToken(args)
	case "call":
		return c.cmdCall(ctx, args)
	case "response":
		return c.cmdResponse(args)
	case "body":
		return c.cmdBody(args)
	case "json":
		return c.cmdJSON(args)
	case "jsonpath":
		return c.cmdJSONPath(args)
	case "eval":
		return c.cmdEval(args)
	case "services":
		return c.cmdServices(ctx, args)
	case "service":
		return c.cmdService(args)
	case "back":
		return shell.Done("Left %s.", c.host.URL).Then(shell.Pop(nil))
	}
	return shell.Unknown()
}

func (c *HostContext) cmdToken(args []string) shell.Result {
	switch len(args) {
	case 0:
		return shell.Unchanged("%s", c.host.Token)
	case 1:
		if args[0] == c.host.Token {
			return shell.Unchanged("Token unchanged.")
		}
		prev := c.host.SetToken(args[0])
		return shell.Done("Replaced token %s.", prev)
	}
	return shell.UsageOf(usageToken)
}

func (c *HostContext) cmdCall(ctx context.Context, args []string) shell.Result {
	if len(args) < 2 {
		return shell.UsageOf(usageCall)
	}
	call, err := client.ParseCall(args)
	if err != nil {
		return shell.FailErr(err)
	}
	if c.env.API == nil {
		return shell.FailErr(errNoAPI)
	}
	resp, err := c.env.API.Send(ctx, c.host.Endpoint(), call)
	if err != nil {
		return shell.FailErr(err)
	}
	if err := c.replaceResponse(resp); err != nil {
		c.env.logger().Warn("closing previous response", "error", err)
	}
	return shell.Done("Ok, response status %d.", resp.Status)
}

func (c *HostContext) cmdResponse(args []string) shell.Result {
	if len(args) != 0 {
		return shell.UsageOf("response")
	}
	if c.last == nil {
		return shell.FailErr(client.ErrNoResponse)
	}
	length := "unknown"
	if c.last.ContentLength >= 0 {
		length = strconv.FormatInt(c.last.ContentLength, 10)
	}
	rows := [][]string{
		{"status", c.last.StatusText},
		{"content-length", length},
		{"content-type", c.last.ContentType()},
	}
	return shell.Unchanged("%s", render.Table(nil, rows))
}

func (c *HostContext) cmdBody(args []string) shell.Result {
	if len(args) != 0 {
		return shell.UsageOf("body")
	}
	body, err := c.body()
	if err != nil {
		return shell.FailErr(err)
	}
	return shell.Unchanged("%s", body)
}

func (c *HostContext) cmdJSON(args []string) shell.Result {
	if len(args) != 0 {
		return shell.UsageOf("json")
	}
	body, err := c.body()
	if err != nil {
		return shell.FailErr(err)
	}
	out, err := render.PrettyJSON(body, c.env.Color)
	if err != nil {
		return shell.FailErr(err)
	}
	return shell.Unchanged("%s", out)
}

func (c *HostContext) cmdJSONPath(args []string) shell.Result {
	if len(args) == 0 {
		return shell.UsageOf(usageJSONPath)
	}
	doc, err := c.document()
	if err != nil {
		return shell.FailErr(err)
	}
	out, err := query.JSONPath(doc, shell.Rest(args, 0))
	if err != nil {
		return shell.FailErr(err)
	}
	return shell.Unchanged("%s", render.Value(out, c.env.Color))
}

func (c *HostContext) cmdEval(args []string) shell.Result {
	if len(args) == 0 {
		return shell.UsageOf(usageEval)
	}
	body, err := c.body()
	if err != nil {
		return shell.FailErr(err)
	}
	var doc any = string(body)
	if decoded, err := query.Decode(body); err == nil {
		doc = decoded
	}
	env := map[string]any{
		"body":   doc,
		"status": c.last.Status,
		"host":   c.host.URL,
	}
	out, err := query.Eval(shell.Rest(args, 0), env)
	if err != nil {
		return shell.FailErr(err)
	}
	return shell.Unchanged("%s", render.Value(out, c.env.Color))
}

func (c *HostContext) cmdServices(ctx context.Context, args []string) shell.Result {
	if len(args) != 0 {
		return shell.UsageOf("services")
	}
	var list serviceList
	if err := fetchJSON(ctx, c.env.API, c.host.Endpoint(), "/admin/api/services.json", &list); err != nil {
		return shell.FailErr(err)
	}
	c.services = list.services()
	if len(c.services) == 0 {
		return shell.Done("No services.")
	}
	rows := make([][]string, len(c.services))
	for i, s := range c.services {
		rows[i] = []string{strconv.FormatInt(s.ID, 10), s.Name, s.SystemName}
	}
	return shell.Done("%s", render.Table([]string{"ID", "NAME", "SYSTEM NAME"}, rows))
}

func (c *HostContext) cmdService(args []string) shell.Result {
	if len(args) != 1 {
		return shell.UsageOf(usageService)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return shell.Fail("invalid service id %q", args[0])
	}
	for _, s := range c.services {
		if s.ID == id {
			return shell.Done("Ok, found service %s.", s.Name).
				Then(shell.Push(NewServiceContext(c.host, s, c.env)))
		}
	}
	return shell.Fail("Service not found. Run 'services' first.")
}

// body returns the cached body of the last response.
func (c *HostContext) body() ([]byte, error) {
	if c.last == nil {
		return nil, client.ErrNoResponse
	}
	return c.last.Body()
}

func (c *HostContext) document() (any, error) {
	body, err := c.body()
	if err != nil {
		return nil, err
	}
	return query.Decode(body)
}

func (c *HostContext) replaceResponse(resp *client.Response) error {
	prev := c.last
	c.last = resp
	if prev == nil {
		return nil
	}
	return prev.Close()
}

// fetchJSON GETs path and decodes a successful JSON response into v.
func fetchJSON(ctx context.Context, api *client.Client, ep client.Endpoint, path string, v any) error {
	if api == nil {
		return errNoAPI
	}
	resp, err := api.Send(ctx, ep, client.Call{Method: client.GET, Path: path})
	if err != nil {
		return err
	}
	defer resp.Close()

	body, err := resp.Body()
	if err != nil {
		return err
	}
	if resp.Status < http.StatusOK || resp.Status >= http.StatusMultipleChoices {
		return fmt.Errorf("HTTP %d: %s", resp.Status, truncate(body, 300))
	}
	if err := decodeInto(body, v); err != nil {
		return err
	}
	return nil
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
