package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/five82/trainlog/internal/api"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, Saved},
		{"unauthorized", &api.Error{Kind: api.KindUnauthorized, Status: 401}, AccessError},
		{"server", &api.Error{Kind: api.KindServer, Status: 503}, ServerUnavailable},
		{"network", &api.Error{Kind: api.KindNetworkUnavailable, Err: errors.New("dial tcp")}, ConnectivityError},
		{"wrapped network", fmt.Errorf("load: %w", &api.Error{Kind: api.KindNetworkUnavailable}), ConnectivityError},
		{"client", &api.Error{Kind: api.KindClient, Status: 404}, GenericError},
		{"malformed", &api.Error{Kind: api.KindMalformedResponse}, GenericError},
		{"plain", errors.New("boom"), GenericError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromError(tt.err); got != tt.want {
				t.Fatalf("FromError = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		kind   Kind
		detail string
		want   string
	}{
		{Loading, "", "Загрузка…"},
		{Saved, "2025-03-01", "✓ Сохранено · 2025-03-01"},
		{Loaded, "", "✓ Загружено"},
		{AccessError, "ignored", "⚠ Ошибка доступа. Проверьте авторизацию."},
		{ConnectivityError, "", "⚠ Нет подключения к интернету"},
		{GenericError, " boom ", "⚠ boom"},
		{GenericError, "", "⚠ Ошибка"},
		{Idle, "x", ""},
	}
	for _, tt := range tests {
		if got := Message(tt.kind, tt.detail); got != tt.want {
			t.Errorf("Message(%s, %q) = %q, want %q", tt.kind, tt.detail, got, tt.want)
		}
	}
}

func TestIsError(t *testing.T) {
	for _, k := range []Kind{Idle, Loading, Saving, Loaded, Saved, Offline} {
		if k.IsError() {
			t.Errorf("%s.IsError() = true", k)
		}
	}
	for _, k := range []Kind{AccessError, ServerUnavailable, ConnectivityError, GenericError} {
		if !k.IsError() {
			t.Errorf("%s.IsError() = false", k)
		}
	}
	if ForError(nil) != "" {
		t.Errorf("ForError(nil) not empty")
	}
}
