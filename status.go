package todo

import (
	"context"
	"fmt"
	"time"
)

// Status is a snapshot of the health of the application and its store.
type Status struct {
	Status          string      `json:"status"`
	Time            time.Time   `json:"time"`
	Uptime          string      `json:"uptime"`
	GitHash         string      `json:"gitHash"`
	ApplicationName string      `json:"applicationName"`
	InstanceName    string      `json:"instanceName"`
	Environment     Environment `json:"environment"`
	Store           StoreStatus `json:"store"`
}

type StoreStatus struct {
	Backend  Backend   `json:"backend"`
	Postgres *Postgres `json:"postgres,omitempty"`
	Status   string    `json:"status"`
	Items    int       `json:"items"`
	Labels   int       `json:"labels"`
}

// Status reports if the store is reachable and how many items and labels it holds.
// A failing store does not return an error, but is reported in the Status.
func (c *Container) Status(ctx context.Context) Status {
	store := StoreStatus{
		Backend: c.Config.Store.Backend,
		Status:  "online",
	}

	if c.PG != nil {
		store.Postgres = &c.Config.Postgres

		if err := c.PG.PGx.Ping(ctx); err != nil {
			store.Status = fmt.Errorf("err: %w", err).Error()
		}
	}

	if items, err := c.Items.All(ctx); err == nil {
		store.Items = len(items)
	} else {
		store.Status = fmt.Errorf("err: %w", err).Error()
	}

	if labels, err := c.Labels.All(ctx); err == nil {
		store.Labels = len(labels)
	} else {
		store.Status = fmt.Errorf("err: %w", err).Error()
	}

	status := "online"
	if store.Status != "online" {
		status = "degraded"
	}

	return Status{
		Status:          status,
		Time:            time.Now(),
		Uptime:          time.Since(c.startedAt).Round(time.Second).String(),
		GitHash:         gitHash(),
		ApplicationName: c.Config.ApplicationName,
		InstanceName:    c.Config.InstanceName,
		Environment:     c.Config.Environment,
		Store:           store,
	}
}
