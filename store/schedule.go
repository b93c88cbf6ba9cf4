package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jacentio/suds/internal/keys"
)

// ScheduleStore keeps appointments keyed by their appointment second.
//
// Two appointments in the same second share a key, so the later save
// overwrites the earlier one regardless of groomer.
type ScheduleStore struct {
	backend Backend
	config  Config
}

// NewScheduleStore creates a ScheduleStore.
func NewScheduleStore(backend Backend, config Config) *ScheduleStore {
	config.validate()
	return &ScheduleStore{
		backend: backend,
		config:  config,
	}
}

// SaveSchedule writes schedule and sets schedule.ScheduleID.
func (s *ScheduleStore) SaveSchedule(ctx context.Context, schedule *Schedule) error {
	if schedule == nil {
		return fmt.Errorf("%w: schedule is nil", ErrInvalidInput)
	}
	scheduleID, err := keys.ScheduleID(schedule.AppointmentTime, s.config.Location)
	if err != nil {
		return err
	}
	for _, ref := range []struct{ attr, value string }{
		{AttrGroomerID, schedule.GroomerID},
		{AttrCustomerID, schedule.CustomerID},
		{AttrPetID, schedule.PetID},
	} {
		if strings.TrimSpace(ref.value) == "" {
			return fmt.Errorf("%w: schedule %s is empty", ErrInvalidInput, ref.attr)
		}
	}

	schedule.ScheduleID = scheduleID

	rec, err := encode(scheduleRecord{
		ScheduleID:      scheduleID,
		AppointmentTime: schedule.AppointmentTime.Format(appointmentLayout),
		GroomerID:       schedule.GroomerID,
		CustomerID:      schedule.CustomerID,
		PetID:           schedule.PetID,
	})
	if err != nil {
		return err
	}
	if err := s.backend.PutItem(ctx, s.config.ScheduleTable, rec, nil); err != nil {
		return fmt.Errorf("save schedule %s: %w", scheduleID, err)
	}
	return nil
}

// GetSchedule returns the appointments between start and end inclusive,
// earliest first.
func (s *ScheduleStore) GetSchedule(ctx context.Context, start, end time.Time) ([]Schedule, error) {
	return s.scanRange(ctx, start, end)
}

// GetScheduleForGroomer is GetSchedule restricted to one groomer. The groomer
// is identified by GroomerID, or by EmployeeNumber when GroomerID is empty.
func (s *ScheduleStore) GetScheduleForGroomer(ctx context.Context, groomer Groomer, start, end time.Time) ([]Schedule, error) {
	groomerID := groomer.GroomerID
	if groomerID == "" {
		id, err := keys.GroomerPartitionKey(groomer.EmployeeNumber)
		if err != nil {
			return nil, err
		}
		groomerID = id
	}
	return s.scanRange(ctx, start, end, Equal(AttrGroomerID, groomerID))
}

// GetScheduleForParent is GetSchedule restricted to one customer. The parent
// is identified by CustomerID, or by PhoneNumber when CustomerID is empty.
func (s *ScheduleStore) GetScheduleForParent(ctx context.Context, parent Parent, start, end time.Time) ([]Schedule, error) {
	customerID := parent.CustomerID
	if customerID == "" {
		id, err := keys.CustomerPartitionKey(parent.PhoneNumber)
		if err != nil {
			return nil, err
		}
		customerID = id
	}
	return s.scanRange(ctx, start, end, Equal(AttrCustomerID, customerID))
}

func (s *ScheduleStore) scanRange(ctx context.Context, start, end time.Time, extra ...Condition) ([]Schedule, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: schedule range needs both start and end", ErrInvalidInput)
	}
	from := start.Format(appointmentLayout)
	to := end.Format(appointmentLayout)
	if to < from {
		return nil, fmt.Errorf("%w: schedule range ends (%s) before it starts (%s)", ErrInvalidInput, to, from)
	}

	filter := append(Where(
		GreaterOrEqual(AttrAppointmentTime, from),
		LessOrEqual(AttrAppointmentTime, to),
	), extra...)

	recs, err := s.backend.Scan(ctx, s.config.ScheduleTable, filter)
	if err != nil {
		return nil, fmt.Errorf("scan schedules (%s): %w", filter, err)
	}
	s.config.Logger.DebugContext(ctx, "scanned schedule table",
		"table", s.config.ScheduleTable,
		"filter", filter.String(),
		"matches", len(recs),
	)

	schedules := make([]Schedule, 0, len(recs))
	for _, rec := range recs {
		var r scheduleRecord
		if err := decode(rec, &r); err != nil {
			return nil, err
		}
		at, err := time.ParseInLocation(appointmentLayout, r.AppointmentTime, s.config.Location)
		if err != nil {
			return nil, fmt.Errorf("schedule %s: parse appointment time %q: %w", r.ScheduleID, r.AppointmentTime, err)
		}
		schedules = append(schedules, Schedule{
			ScheduleID:      r.ScheduleID,
			AppointmentTime: at,
			GroomerID:       r.GroomerID,
			CustomerID:      r.CustomerID,
			PetID:           r.PetID,
		})
	}

	// Scan order is unspecified.
	slices.SortFunc(schedules, func(a, b Schedule) int {
		return cmp.Or(
			a.AppointmentTime.Compare(b.AppointmentTime),
			cmp.Compare(a.ScheduleID, b.ScheduleID),
		)
	})
	return schedules, nil
}
