// Package stream provides DynamoDB Streams handlers for the groomer table.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/suds/internal/keys"
	"github.com/jacentio/suds/store"
)

// DefaultSettle is how old a snapshot record must be before the handler
// looks at its latest pointer.
const DefaultSettle = 5 * time.Second

// Handler repairs groomer latest pointers left behind by interrupted saves.
//
// Each snapshot event costs one pointer read. Only when the pointer is
// missing or behind the snapshot does the handler reconcile, which scans
// the groomer table.
type Handler struct {
	groomers *store.GroomerStore
	logger   *slog.Logger

	// settle delays processing until a snapshot record is at least this old,
	// so a save that is still between its two writes is not raced.
	settle time.Duration
}

// NewHandler creates a new stream handler with DefaultSettle.
func NewHandler(groomers *store.GroomerStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		groomers: groomers,
		logger:   logger,
		settle:   DefaultSettle,
	}
}

// WithSettle returns h with a different settle delay. Zero disables the delay.
func (h *Handler) WithSettle(d time.Duration) *Handler {
	h.settle = d
	return h
}

// HandleGroomerVersions processes groomer table stream events and advances
// the "v0" pointer of every employee whose newest snapshot it does not name.
// It is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleGroomerVersions(ctx context.Context, event events.DynamoDBEvent) error {
	for i := range event.Records {
		record := &event.Records[i]
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.ErrorContext(ctx, "failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

func (h *Handler) processRecord(ctx context.Context, record *events.DynamoDBEventRecord) error {
	if record.EventName != string(events.DynamoDBOperationTypeInsert) &&
		record.EventName != string(events.DynamoDBOperationTypeModify) {
		return nil
	}

	version := getStringAttr(record.Change.NewImage, store.AttrVersion)
	n, err := keys.ParseVersionTag(version)
	if err != nil || n == 0 {
		// Pointer writes and foreign records need no repair.
		return nil
	}

	employeeNumber := getStringAttr(record.Change.NewImage, "employeeNumber")
	if employeeNumber == "" {
		key := ConvertStreamKey(record.Change.Keys)
		if v, ok := key[store.AttrGroomerID].(*types.AttributeValueMemberS); ok {
			employeeNumber = strings.TrimPrefix(v.Value, keys.PrefixGroomer)
		}
	}
	if employeeNumber == "" {
		h.logger.WarnContext(ctx, "snapshot record without employee number",
			"eventID", record.EventID,
			"version", version,
		)
		return nil
	}

	if err := h.wait(ctx, record.Change.ApproximateCreationDateTime.Time); err != nil {
		return err
	}

	latest, err := h.groomers.GetGroomer(ctx, employeeNumber)
	switch {
	case err == nil && latest.LatestVersion != nil && *latest.LatestVersion >= n:
		return nil
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("read latest pointer %s: %w", employeeNumber, err)
	}

	repaired, err := h.groomers.ReconcileGroomer(ctx, employeeNumber)
	switch {
	case errors.Is(err, store.ErrConcurrentModification):
		// Someone else moved the pointer after we read it.
		h.logger.InfoContext(ctx, "latest pointer moved during reconcile",
			"employeeNumber", employeeNumber,
			"version", version,
		)
		return nil
	case errors.Is(err, store.ErrNotFound):
		h.logger.WarnContext(ctx, "snapshot not visible to reconcile",
			"employeeNumber", employeeNumber,
			"version", version,
		)
		return nil
	case err != nil:
		return fmt.Errorf("reconcile %s: %w", employeeNumber, err)
	}

	if repaired {
		h.logger.WarnContext(ctx, "advanced stale groomer latest pointer",
			"employeeNumber", employeeNumber,
			"snapshotVersion", n,
		)
	}
	return nil
}

// wait blocks until created is at least h.settle in the past.
func (h *Handler) wait(ctx context.Context, created time.Time) error {
	if h.settle <= 0 || created.IsZero() {
		return nil
	}
	d := time.Until(created.Add(h.settle))
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// ConvertStreamKey converts a DynamoDB stream key to a store.PK.
func ConvertStreamKey(streamKey map[string]events.DynamoDBAttributeValue) store.PK {
	result := make(store.PK)
	for k, v := range streamKey {
		switch v.DataType() {
		case events.DataTypeString:
			result[k] = &types.AttributeValueMemberS{Value: v.String()}
		case events.DataTypeNumber:
			result[k] = &types.AttributeValueMemberN{Value: v.Number()}
		case events.DataTypeBinary:
			result[k] = &types.AttributeValueMemberB{Value: v.Binary()}
		}
	}
	return result
}
