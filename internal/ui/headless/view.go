package headless

import (
	zone "github.com/lrstanley/bubblezone"

	headlessview "chatwire/internal/ui/headless/view"
)

// runtimeView projects the model's connection state into the render input.
func (m *headlessModel) runtimeView() headlessview.Runtime {
	return headlessview.Runtime{
		BuildVersion: m.buildVersion,
		Running:      m.running,
		Connecting:   m.connecting,
		Status:       m.status,
		StatusKind:   m.kind,
		Rooms:        m.roomRows,
	}
}

func (m *headlessModel) View() string {
	return zone.Scan(headlessview.RenderApp(&m.ui, m.runtimeView()))
}
