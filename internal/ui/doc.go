// Package ui provides the Bubble Tea terminal interface for today's workout plan.
//
// # Layout
//
//	trainlog · Тренировка · 2025-03-01 · 3/8 подходов
//
//	▸ Жим лежа  80 кг · 1/2
//	   ● 1 подход · 80кг · 10 повторений  → 10
//	   ○ 2 подход · 80кг · 10 повторений
//
//	✓ Сохранено · 2025-03-01
//	space ○ → ● → ⊘ • e повторы • r обновить • h/? справка • q выход
//
// # Data Flow
//
// The model never talks to the backend directly. Set toggles, reps edits and
// the results transfer run as tea.Cmd goroutines through the tracker services,
// which apply the change to the plan cache before the request is sent. A tick
// re-reads the cached plan that the background poller keeps fresh.
//
// Every incoming plan passes the change-detection gate of the plan cache. The
// row list is rebuilt only when the fingerprint changed; otherwise rows are
// kept and only their content is re-rendered, so the cursor stays put.
//
// # Themes
//
// Dracula and Nord are available. T cycles them and stores the choice in the
// preferences file.
package ui
