package worker

import (
	"time"

	"github.com/polkiloo/servicemart/internal/domain/model"
	"github.com/polkiloo/servicemart/internal/domain/taxonomy"
)

// Progress derives the step states of the progress bar from a single status.
// Statuses outside the ordered list leave every step pending.
func Progress(status model.DeliveryStatus) []model.ProgressStep {
	order := taxonomy.DeliveryIndex(status)
	statuses := taxonomy.DeliveryProgressOrder()
	steps := make([]model.ProgressStep, len(statuses))
	for i, s := range statuses {
		state := model.StepPending
		switch {
		case order > i:
			state = model.StepCompleted
		case order == i:
			state = model.StepActive
		}
		label := string(s)
		if display, ok := taxonomy.DeliveryDisplay(s); ok {
			label = display.Label
		}
		steps[i] = model.ProgressStep{Status: s, Label: label, State: state}
	}
	return steps
}

// Classify maps a delivery request to the coarse phase shown next to the bar.
func Classify(req *model.DeliveryRequest) model.DeliveryPhase {
	if req == nil {
		return model.DeliveryPhaseUnassigned
	}
	switch req.Status {
	case model.DeliveryStatusDelivered:
		return model.DeliveryPhaseDelivered
	case model.DeliveryStatusCancelled:
		return model.DeliveryPhaseCancelled
	case model.DeliveryStatusFailed:
		return model.DeliveryPhaseFailed
	}
	if taxonomy.DeliveryIndex(req.Status) >= 0 {
		return model.DeliveryPhaseInTransit
	}
	return model.DeliveryPhasePreflight
}

// BuildSnapshot computes a fresh snapshot from the server record. Nothing is
// carried over from earlier snapshots.
func BuildSnapshot(orderID string, req *model.DeliveryRequest, fetchedAt time.Time) model.DeliverySnapshot {
	snapshot := model.DeliverySnapshot{
		OrderID:   orderID,
		Request:   req,
		Assigned:  req != nil,
		Phase:     Classify(req),
		FetchedAt: fetchedAt,
	}
	var status model.DeliveryStatus
	if req != nil {
		status = req.Status
	}
	snapshot.Steps = Progress(status)
	return snapshot
}
