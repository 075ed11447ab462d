package registry

import (
	"context"
	"fmt"

	"deskpilot/internal/capability"
)

func (r *Registry) registerSystemActions() {
	systemActions := []struct {
		name, description string
		call              func(capability.System) error
	}{
		{"lock_screen", "Lock the desktop session", capability.System.Lock},
		{"sleep_system", "Put the machine to sleep", capability.System.Sleep},
		{"shutdown_system", "Shut the machine down", capability.System.Shutdown},
		{"restart_system", "Restart the machine", capability.System.Restart},
		{"volume_up", "Raise the system volume one step", capability.System.VolumeUp},
		{"volume_down", "Lower the system volume one step", capability.System.VolumeDown},
		{"volume_mute", "Toggle system mute", capability.System.VolumeMute},
	}
	for _, sa := range systemActions {
		call := sa.call
		r.MustRegister(&Spec{
			Name:        sa.name,
			Category:    CategorySystem,
			Description: sa.description,
			Examples:    []string{fmt.Sprintf(`{"action": %q, "params": {}}`, sa.name)},
			Handler: func(ctx context.Context, params map[string]any) (any, error) {
				sys, err := r.sys()
				if err != nil {
					return nil, err
				}
				return nil, call(sys)
			},
		})
	}
}
