package feasibility

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/troikatech/planwise/pkg/domain/entities"
	"github.com/troikatech/planwise/pkg/domain/repositories"
)

// InventoryProjection is the projected supply position of one component
type InventoryProjection struct {
	ComponentID entities.ComponentID
	Required    entities.Quantity
	// AvailableNow is on-hand minus allocated at snapshot time
	AvailableNow entities.Quantity
	// AvailableBy adds inbound shipment quantities expected to arrive by
	// the projection date
	AvailableBy entities.Quantity
}

// InventoryProjector computes net available quantities per component,
// including known incoming shipments within the horizon. Read-only.
type InventoryProjector struct{}

// NewInventoryProjector creates an InventoryProjector
func NewInventoryProjector() *InventoryProjector {
	return &InventoryProjector{}
}

// Project returns one projection per required component, sorted by
// component ID for deterministic output. A component with no inventory
// record projects as zero availability.
func (p *InventoryProjector) Project(
	ctx context.Context,
	snap repositories.Snapshot,
	required map[entities.ComponentID]entities.Quantity,
	by time.Time,
) ([]InventoryProjection, error) {
	ids := make([]entities.ComponentID, 0, len(required))
	for id := range required {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	projections := make([]InventoryProjection, 0, len(ids))
	for _, id := range ids {
		proj := InventoryProjection{
			ComponentID: id,
			Required:    required[id],
		}

		record, err := snap.InventoryRecord(ctx, id)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			// No stock record means nothing on hand
		case err != nil:
			return nil, errors.Wrapf(err, "load inventory record for %s", id)
		default:
			proj.AvailableNow = record.Available()
		}

		proj.AvailableBy = proj.AvailableNow

		shipments, err := snap.InboundShipments(ctx, id, by)
		if err != nil {
			return nil, errors.Wrapf(err, "load inbound shipments for %s", id)
		}
		for _, shipment := range shipments {
			if shipment.Status == entities.ShipmentCancelled {
				continue
			}
			proj.AvailableBy += shipment.QuantityOf(id)
		}

		projections = append(projections, proj)
	}

	return projections, nil
}
