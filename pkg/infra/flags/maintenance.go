package flags

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/astralhq/chatgate/pkg/types"
	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/singleflight"
)

const maintenanceKey = "flags:maintenance"

// MaintenanceStore exposes the process-wide maintenance flag. The flag is
// queried, never computed; operators toggle it directly in redis.
//
//go:generate mockery --name=MaintenanceStore --dir=. --output=../../mocks --filename=maintenance_store_mock.go --case=underscore --with-expecter
type MaintenanceStore interface {
	Status(ctx context.Context) (types.MaintenanceStatus, error)
}

type store struct {
	redis *redis.Client
	group singleflight.Group
}

func NewMaintenanceStore(redisClient *redis.Client) MaintenanceStore {
	return &store{redis: redisClient}
}

// Status reads the flag payload. Concurrent reads are collapsed into one
// redis round trip; a missing key means maintenance is off.
func (s *store) Status(ctx context.Context) (types.MaintenanceStatus, error) {
	v, err, _ := s.group.Do(maintenanceKey, func() (interface{}, error) {
		raw, err := s.redis.Get(ctx, maintenanceKey).Result()
		if err != nil {
			if err == redis.Nil {
				return types.MaintenanceStatus{}, nil
			}
			return types.MaintenanceStatus{}, fmt.Errorf("failed to read maintenance flag: %w", err)
		}

		var status types.MaintenanceStatus
		if err := json.Unmarshal([]byte(raw), &status); err != nil {
			return types.MaintenanceStatus{}, fmt.Errorf("malformed maintenance flag payload: %w", err)
		}
		return status, nil
	})
	if err != nil {
		return types.MaintenanceStatus{}, err
	}

	status, ok := v.(types.MaintenanceStatus)
	if !ok {
		return types.MaintenanceStatus{}, fmt.Errorf("unexpected maintenance flag type %T", v)
	}
	return status, nil
}
