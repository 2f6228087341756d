// Package status turns operation outcomes into the one-line status shown to the user.
package status

import (
	"errors"
	"strings"

	"github.com/five82/trainlog/internal/api"
)

// Kind is a status-line category.
type Kind int

const (
	Idle Kind = iota
	Loading
	Saving
	Loaded
	Saved
	Offline
	AccessError
	ServerUnavailable
	ConnectivityError
	GenericError
)

func (k Kind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Saving:
		return "saving"
	case Loaded:
		return "loaded"
	case Saved:
		return "saved"
	case Offline:
		return "offline"
	case AccessError:
		return "access-error"
	case ServerUnavailable:
		return "server-unavailable"
	case ConnectivityError:
		return "connectivity-error"
	case GenericError:
		return "error"
	default:
		return "idle"
	}
}

// IsError reports whether the kind describes a failure.
func (k Kind) IsError() bool {
	return k >= AccessError
}

// FromError classifies err. A nil error is Saved.
func FromError(err error) Kind {
	switch {
	case err == nil:
		return Saved
	case errors.Is(err, api.ErrUnauthorized):
		return AccessError
	case errors.Is(err, api.ErrServer):
		return ServerUnavailable
	case errors.Is(err, api.ErrNetworkUnavailable):
		return ConnectivityError
	default:
		return GenericError
	}
}

// Message renders the status line. detail is the day for loaded, saved and offline lines
// and the error text for generic errors; it may be empty.
func Message(kind Kind, detail string) string {
	detail = strings.TrimSpace(detail)
	switch kind {
	case Loading:
		return "Загрузка…"
	case Saving:
		return "Сохранение…"
	case Loaded:
		return withDetail("✓ Загружено", detail)
	case Saved:
		return withDetail("✓ Сохранено", detail)
	case Offline:
		return withDetail("⚠ Офлайн: данные сохранены на устройстве", detail)
	case AccessError:
		return "⚠ Ошибка доступа. Проверьте авторизацию."
	case ServerUnavailable:
		return "⚠ Сервер временно недоступен. Попробуйте позже."
	case ConnectivityError:
		return "⚠ Нет подключения к интернету"
	case GenericError:
		if detail == "" {
			return "⚠ Ошибка"
		}
		return "⚠ " + detail
	default:
		return ""
	}
}

// ForError renders the status line of a failed operation.
func ForError(err error) string {
	if err == nil {
		return ""
	}
	return Message(FromError(err), err.Error())
}

func withDetail(text, detail string) string {
	if detail == "" {
		return text
	}
	return text + " · " + detail
}
