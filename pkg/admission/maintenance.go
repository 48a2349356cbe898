package admission

import (
	"context"
	"net/http"

	"github.com/astralhq/chatgate/pkg/infra/flags"
	"github.com/astralhq/chatgate/pkg/types"
)

type maintenanceStage struct {
	store flags.MaintenanceStore
}

// NewMaintenanceStage denies everything with 503 while the operator flag is
// up, echoing the flag's message verbatim to the client.
func NewMaintenanceStage(store flags.MaintenanceStore) Stage {
	return &maintenanceStage{store: store}
}

func (s *maintenanceStage) Name() string {
	return "maintenance"
}

func (s *maintenanceStage) Evaluate(ctx context.Context, meta *RequestMeta) (types.Decision, error) {
	status, err := s.store.Status(ctx)
	if err != nil {
		return types.Continue(), err
	}
	if !status.Enabled {
		return types.Continue(), nil
	}

	return types.DenyWith(&types.Deny{
		StatusCode: http.StatusServiceUnavailable,
		Provider:   types.ProviderMaintenance,
		Message:    status.Message,
		Warning:    types.WarningMaintenance,
	}), nil
}
