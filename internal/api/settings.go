package api

import "context"

// GetProfile returns the user profile.
func (c *Client) GetProfile(ctx context.Context) (Document, error) {
	doc := Document{}
	if err := c.Get(ctx, PathProfile, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// SaveProfile updates profile fields and returns the stored profile.
func (c *Client) SaveProfile(ctx context.Context, fields Document) (Document, error) {
	doc := Document{}
	err := c.Post(ctx, PathProfile, fields, &doc)
	return doc, err
}

// GetReminders returns the reminder switch.
func (c *Client) GetReminders(ctx context.Context) (Reminders, error) {
	var r Reminders
	err := c.Get(ctx, PathReminders, &r)
	return r, err
}

// SetReminders turns daily reminders on or off.
func (c *Client) SetReminders(ctx context.Context, enabled bool) (Reminders, error) {
	r := Reminders{Enabled: enabled}
	err := c.Post(ctx, PathReminders, Reminders{Enabled: enabled}, &r)
	return r, err
}

// GetNotifications returns the notification settings.
func (c *Client) GetNotifications(ctx context.Context) (Notifications, error) {
	var n Notifications
	if err := c.Get(ctx, PathNotifications, &n); err != nil {
		return Notifications{}, err
	}
	if len(n.Options) == 0 {
		n.Options = append([]NotifyOption(nil), NotifyOptions...)
	}
	if n.FrequencyLabel == "" {
		n.FrequencyLabel = FrequencyLabel(n.Frequency)
	}
	return n, nil
}

// SetNotificationFrequency stores a notification frequency.
func (c *Client) SetNotificationFrequency(ctx context.Context, frequency string) (Notifications, error) {
	n := describeNotifications(frequency)
	err := c.Post(ctx, PathNotifications, map[string]string{"frequency": frequency}, &n)
	return n, err
}

// GetGoals returns the training goals.
func (c *Client) GetGoals(ctx context.Context) (Document, error) {
	doc := Document{}
	if err := c.Get(ctx, PathGoals, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// SaveGoals updates goal fields.
func (c *Client) SaveGoals(ctx context.Context, fields Document) (Document, error) {
	doc := Document{}
	err := c.Post(ctx, PathGoals, fields, &doc)
	return doc, err
}

// Export returns the aggregate data snapshot.
func (c *Client) Export(ctx context.Context) (Export, error) {
	out := Export{}
	if err := c.Get(ctx, PathExport, &out); err != nil {
		return nil, err
	}
	return out, nil
}
