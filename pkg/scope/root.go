// Package scope holds the contexts of the 3scale shell: the root host list,
// a selected host and a selected service.
package scope

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/ormasoftchile/sjsh/internal/logging"
	"github.com/ormasoftchile/sjsh/pkg/client"
	"github.com/ormasoftchile/sjsh/pkg/render"
	"github.com/ormasoftchile/sjsh/pkg/shell"
)

// errNoAPI is reported by commands that need the network when Env has no client.
var errNoAPI = errors.New("no API client configured")

// Env carries what contexts need from the program around them. A nil API
// makes network commands fail.
type Env struct {
	API    *client.Client
	Color  bool
	Logger *slog.Logger
}

func (e Env) logger() *slog.Logger {
	if e.Logger == nil {
		return logging.NewNop()
	}
	return e.Logger
}

const usageHost = "host <3scale-system-host> [<token>]"

const rootHelp = `
Manage the known 3scale hosts.

- ` + "`host <url> <token>`" + `: add a host, or replace the token of a known one
- ` + "`host <url>`" + `: select a known host
- ` + "`hosts`" + `: list the known hosts
`

// Root is the top-level context: the list of known hosts, sorted by URL.
type Root struct {
	hosts []*Host
	env   Env
}

// NewRoot creates an empty root context.
func NewRoot(env Env) *Root {
	return &Root{env: env}
}

// Prompt is empty at the root.
func (r *Root) Prompt() string {
	return ""
}

// Commands lists the commands understood by the root.
func (r *Root) Commands() []string {
	return []string{"host", "hosts"}
}

// Help returns the markdown help for the root.
func (r *Root) Help() string {
	return rootHelp
}

// Hosts returns the known hosts in URL order.
func (r *Root) Hosts() []*Host {
	return slices.Clone(r.hosts)
}

// FindHost looks a host up by exact URL string.
func (r *Root) FindHost(url string) (*Host, bool) {
	i, found := r.search(url)
	if !found {
		return nil, false
	}
	return r.hosts[i], true
}

// AddHost inserts a host or replaces the token of an existing one. For an
// existing host it returns the previous token and existed is true.
func (r *Root) AddHost(url, token string) (h *Host, previous string, existed bool, err error) {
	i, found := r.search(url)
	if found {
		h = r.hosts[i]
		return h, h.SetToken(token), true, nil
	}
	h, err = NewHost(url, token)
	if err != nil {
		return nil, "", false, err
	}
	r.hosts = slices.Insert(r.hosts, i, h)
	return h, "", false, nil
}

func (r *Root) search(url string) (int, bool) {
	return slices.BinarySearchFunc(r.hosts, url, func(h *Host, target string) int {
		return strings.Compare(h.URL, target)
	})
}

// Command dispatches one root command.
func (r *Root) Command(_ context.Context, name string, args []string) shell.Result {
	switch name {
	case "host":
		return r.cmdHost(args)
	case "hosts":
		if len(args) != 0 {
			return shell.UsageOf("hosts")
		}
		return r.cmdHosts()
	}
	return shell.Unknown()
}

func (r *Root) cmdHost(args []string) shell.Result {
	switch len(args) {
	case 1:
		h, ok := r.FindHost(args[0])
		if !ok {
			return shell.Fail("Host not found. If you want to add it, specify a token.")
		}
		return shell.Done("Ok, found host.").Then(shell.Push(NewHostContext(h, r.env)))
	case 2:
		url, token := args[0], args[1]
		if h, ok := r.FindHost(url); ok && h.Token == token {
			return shell.Unchanged("Token unchanged.")
		}
		h, prev, existed, err := r.AddHost(url, token)
		if err != nil {
			return shell.FailErr(err)
		}
		if existed {
			return shell.Done("Replaced token %s.", prev)
		}
		return shell.Done("Host added: %s", h.URL)
	}
	return shell.UsageOf(usageHost)
}

func (r *Root) cmdHosts() shell.Result {
	if len(r.hosts) == 0 {
		return shell.Unchanged("No hosts configured.")
	}
	rows := make([][]string, len(r.hosts))
	for i, h := range r.hosts {
		rows[i] = []string{h.URL, maskToken(h.Token)}
	}
	return shell.Unchanged("%s", render.Table([]string{"URL", "TOKEN"}, rows))
}

// maskToken keeps the first four characters of a token.
func maskToken(token string) string {
	runes := []rune(token)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:4]) + strings.Repeat("*", min(len(runes)-4, 8))
}
