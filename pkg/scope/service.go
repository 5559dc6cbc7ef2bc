package scope

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ormasoftchile/sjsh/pkg/render"
	"github.com/ormasoftchile/sjsh/pkg/shell"
)

// Service is the subset of a 3scale service shown by the shell.
type Service struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	SystemName  string `json:"system_name"`
	State       string `json:"state"`
	Description string `json:"description"`
}

// Metric is a service metric or method.
type Metric struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SystemName   string `json:"system_name"`
	FriendlyName string `json:"friendly_name"`
	Unit         string `json:"unit"`
}

// serviceList is the admin API envelope: {"services":[{"service":{...}}]}.
type serviceList struct {
	Services []struct {
		Service Service `json:"service"`
	} `json:"services"`
}

func (l serviceList) services() []Service {
	out := make([]Service, len(l.Services))
	for i, s := range l.Services {
		out[i] = s.Service
	}
	return out
}

// metricList is the admin API envelope: {"metrics":[{"metric":{...}}]}.
type metricList struct {
	Metrics []struct {
		Metric Metric `json:"metric"`
	} `json:"metrics"`
}

func decodeInto(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

const serviceHelp = `
Commands for a selected service.

- ` + "`show`" + `: service details
- ` + "`metrics`" + `: list the metrics and methods of this service
- ` + "`back`" + `: return to the host
`

// ServiceContext is the scope of one service of a host.
type ServiceContext struct {
	host    *Host
	service Service
	env     Env
}

// NewServiceContext wraps one service of h.
func NewServiceContext(h *Host, s Service, env Env) *ServiceContext {
	return &ServiceContext{host: h, service: s, env: env}
}

// Prompt is the host URL followed by the service path.
func (c *ServiceContext) Prompt() string {
	return fmt.Sprintf("%s/services/%d", c.host.URL, c.service.ID)
}

// Commands lists the commands understood by a service.
func (c *ServiceContext) Commands() []string {
	return []string{"back", "metrics", "show"}
}

// Help returns the markdown help for a service.
func (c *ServiceContext) Help() string {
	return serviceHelp
}

// Command dispatches one service command.
func (c *ServiceContext) Command(ctx context.Context, name string, args []string) shell.Result {
	switch name {
	case "show":
		if len(args) != 0 {
			return shell.UsageOf("show")
		}
		return c.show()
	case "metrics":
		if len(args) != 0 {
			return shell.UsageOf("metrics")
		}
		return c.metrics(ctx)
	case "back":
		return shell.Done("Left service %d.", c.service.ID).Then(shell.Pop(nil))
	}
	return shell.Unknown()
}

func (c *ServiceContext) show() shell.Result {
	s := c.service
	rows := [][]string{
		{"id", strconv.FormatInt(s.ID, 10)},
		{"name", s.Name},
		{"system_name", s.SystemName},
		{"state", s.State},
		{"description", s.Description},
	}
	return shell.Unchanged("%s", render.Table(nil, rows))
}

func (c *ServiceContext) metrics(ctx context.Context) shell.Result {
	var list metricList
	path := fmt.Sprintf("/admin/api/services/%d/metrics.json", c.service.ID)
	if err := fetchJSON(ctx, c.env.API, c.host.Endpoint(), path, &list); err != nil {
		return shell.FailErr(err)
	}
	if len(list.Metrics) == 0 {
		return shell.Done("No metrics.")
	}
	rows := make([][]string, len(list.Metrics))
	for i, m := range list.Metrics {
		rows[i] = []string{strconv.FormatInt(m.Metric.ID, 10), m.Metric.SystemName, m.Metric.Unit}
	}
	return shell.Done("%s", render.Table([]string{"ID", "SYSTEM NAME", "UNIT"}, rows))
}
