package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/trainlog/internal/api"
)

func init() {
	profileCmd := &cobra.Command{
		Use:   "profile [key=value...]",
		Short: "Show the profile, or update the given fields",
		Run:   runProfile,
	}

	goalsCmd := &cobra.Command{
		Use:   "goals [key=value...]",
		Short: "Show training goals, or update the given fields",
		Run:   runGoals,
	}

	remindersCmd := &cobra.Command{
		Use:       "reminders [on|off]",
		Short:     "Show or switch daily reminders",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		Run:       runReminders,
	}

	notificationsCmd := &cobra.Command{
		Use:   "notifications [frequency]",
		Short: "Show or set the notification frequency (3_per_day, 1_per_day, 1_per_week, disabled)",
		Args:  cobra.MaximumNArgs(1),
		Run:   runNotifications,
	}

	RootCmd.AddCommand(profileCmd, goalsCmd, remindersCmd, notificationsCmd)
}

// parseDocument turns key=value arguments into settings fields. Numbers and booleans keep
// their type.
func parseDocument(args []string) (api.Document, error) {
	doc := api.Document{}
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		raw = strings.TrimSpace(raw)
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			doc[key] = n
		} else if b, err := strconv.ParseBool(raw); err == nil {
			doc[key] = b
		} else {
			doc[key] = raw
		}
	}
	return doc, nil
}

func printDocument(cmd *cobra.Command, doc api.Document) {
	if jsonOutput() {
		printJSON(cmd.OutOrStdout(), doc)
		return
	}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", k, doc[k])
	}
}

func runProfile(cmd *cobra.Command, args []string) {
	a := openApp()
	defer a.Close()

	if len(args) == 0 {
		doc, err := a.Client.GetProfile(cmd.Context())
		if err != nil {
			exitErr("get profile", err)
		}
		printDocument(cmd, doc)
		return
	}

	fields, err := parseDocument(args)
	if err != nil {
		exitErr("parse profile", err)
	}
	doc, err := a.Client.SaveProfile(cmd.Context(), fields)
	if err != nil {
		exitErr("save profile", err)
	}
	printDocument(cmd, doc)
}

func runGoals(cmd *cobra.Command, args []string) {
	a := openApp()
	defer a.Close()

	if len(args) == 0 {
		doc, err := a.Client.GetGoals(cmd.Context())
		if err != nil {
			exitErr("get goals", err)
		}
		printDocument(cmd, doc)
		return
	}

	fields, err := parseDocument(args)
	if err != nil {
		exitErr("parse goals", err)
	}
	doc, err := a.Client.SaveGoals(cmd.Context(), fields)
	if err != nil {
		exitErr("save goals", err)
	}
	printDocument(cmd, doc)
}

func runReminders(cmd *cobra.Command, args []string) {
	a := openApp()
	defer a.Close()

	var (
		r   api.Reminders
		err error
	)
	switch {
	case len(args) == 0:
		r, err = a.Client.GetReminders(cmd.Context())
	case args[0] == "on":
		r, err = a.Client.SetReminders(cmd.Context(), true)
	case args[0] == "off":
		r, err = a.Client.SetReminders(cmd.Context(), false)
	default:
		exitErr("parse reminders", fmt.Errorf("expected on or off, got %q", args[0]))
	}
	if err != nil {
		exitErr("reminders", err)
	}

	if jsonOutput() {
		printJSON(cmd.OutOrStdout(), r)
		return
	}
	if r.Enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "Напоминания включены")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Напоминания выключены")
	}
}

func runNotifications(cmd *cobra.Command, args []string) {
	a := openApp()
	defer a.Close()

	var (
		n   api.Notifications
		err error
	)
	if len(args) == 0 {
		n, err = a.Client.GetNotifications(cmd.Context())
	} else {
		n, err = a.Client.SetNotificationFrequency(cmd.Context(), api.NormalizeFrequency(args[0]))
	}
	if err != nil {
		exitErr("notifications", err)
	}

	if jsonOutput() {
		printJSON(cmd.OutOrStdout(), n)
		return
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Уведомления: %s\n", n.FrequencyLabel)
	for _, o := range n.Options {
		mark := " "
		if o.Value == n.Frequency {
			mark = "•"
		}
		fmt.Fprintf(w, "  %s %-11s %s\n", mark, o.Value, o.Label)
	}
}
