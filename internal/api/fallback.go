package api

import (
	"context"
	"encoding/json"
	"strings"
)

// fallbackHandler is the offline substitute of one settings endpoint.
type fallbackHandler struct {
	key   func() string
	read  func(ctx context.Context) any
	write func(ctx context.Context, body any) any
}

func (c *Client) fallbackHandlers() map[string]fallbackHandler {
	return map[string]fallbackHandler{
		PathProfile: {
			key:   func() string { return c.key("profile") },
			read:  func(ctx context.Context) any { return c.offlineProfile(ctx) },
			write: func(ctx context.Context, body any) any { return c.offlineMerge(ctx, c.key("profile"), Document{}, body) },
		},
		PathReminders: {
			key:   func() string { return c.key("reminders") },
			read:  func(ctx context.Context) any { return c.offlineReminders(ctx) },
			write: func(ctx context.Context, body any) any { return c.offlineSetReminders(ctx, body) },
		},
		PathNotifications: {
			key:   func() string { return c.key("notifications") },
			read:  func(ctx context.Context) any { return c.offlineNotifications(ctx) },
			write: func(ctx context.Context, body any) any { return c.offlineSetNotifications(ctx, body) },
		},
		PathGoals: {
			key:   func() string { return c.key("goals") },
			read:  func(ctx context.Context) any { return c.offlineGoals(ctx) },
			write: func(ctx context.Context, body any) any { return c.offlineMerge(ctx, c.key("goals"), defaultGoals(), body) },
		},
		PathExport: {
			key:  func() string { return "" },
			read: func(ctx context.Context) any { return c.offlineExport(ctx) },
		},
	}
}

func defaultGoals() Document {
	return Document{"weekly_workouts": DefaultWeeklyWorkouts}
}

func (c *Client) offlineProfile(ctx context.Context) Document {
	doc := Document{}
	c.fallback.Read(ctx, c.key("profile"), &doc)
	return doc
}

func (c *Client) offlineGoals(ctx context.Context) Document {
	doc := defaultGoals()
	c.fallback.Read(ctx, c.key("goals"), &doc)
	return doc
}

// offlineMerge overlays body's fields onto the stored document.
func (c *Client) offlineMerge(ctx context.Context, key string, def Document, body any) Document {
	current := def
	c.fallback.Read(ctx, key, &current)
	var patch Document
	_ = convert(body, &patch)
	for k, v := range patch {
		current[k] = v
	}
	if c.fallback.Write(ctx, key, current) {
		c.markDirty(key)
	}
	return current
}

func (c *Client) offlineReminders(ctx context.Context) Reminders {
	r := Reminders{Enabled: true}
	c.fallback.Read(ctx, c.key("reminders"), &r)
	return r
}

func (c *Client) offlineSetReminders(ctx context.Context, body any) Reminders {
	var r Reminders
	_ = convert(body, &r)
	if c.fallback.Write(ctx, c.key("reminders"), r) {
		c.markDirty(c.key("reminders"))
	}
	return r
}

type storedNotifications struct {
	Frequency string `json:"frequency"`
}

func (c *Client) offlineNotifications(ctx context.Context) Notifications {
	var stored storedNotifications
	c.fallback.Read(ctx, c.key("notifications"), &stored)
	return describeNotifications(stored.Frequency)
}

func (c *Client) offlineSetNotifications(ctx context.Context, body any) Notifications {
	var stored storedNotifications
	_ = convert(body, &stored)
	stored.Frequency = NormalizeFrequency(stored.Frequency)
	if c.fallback.Write(ctx, c.key("notifications"), stored) {
		c.markDirty(c.key("notifications"))
	}
	return describeNotifications(stored.Frequency)
}

func describeNotifications(frequency string) Notifications {
	frequency = NormalizeFrequency(frequency)
	return Notifications{
		Frequency:      frequency,
		FrequencyLabel: FrequencyLabel(frequency),
		IsEnabled:      frequency != FrequencyDisabled,
		Options:        append([]NotifyOption(nil), NotifyOptions...),
	}
}

// offlineNotes returns every locally stored note keyed "day|kind".
func (c *Client) offlineNotes(ctx context.Context) map[string]string {
	out := map[string]string{}
	for rest, raw := range c.fallback.Scan(ctx, c.key("note")+":") {
		var note struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(raw, &note) != nil {
			continue
		}
		day, kind, ok := strings.Cut(rest, ":")
		if !ok {
			continue
		}
		out[day+"|"+kind] = note.Text
	}
	return out
}

func (c *Client) offlineExport(ctx context.Context) Export {
	return Export{
		"notes":         c.offlineNotes(ctx),
		"profile":       c.offlineProfile(ctx),
		"goals":         c.offlineGoals(ctx),
		"reminders":     c.offlineReminders(ctx),
		"notifications": c.offlineNotifications(ctx),
	}
}
