package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/suds/internal/keys"
)

// GroomerStore keeps an append-only history per employee. Every save writes
// an immutable snapshot "vN" and then rewrites the "v0" latest pointer, whose
// LatestVersion names the newest snapshot.
//
// The two writes are not atomic. If the pointer write fails (or the process
// dies between the writes) the snapshot stays behind with a version the
// pointer does not report; ReconcileGroomer repairs that.
//
// Unless Config.StrictVersioning is set, one writer per employee is assumed:
// concurrent saves may overwrite each other's snapshot or leave the pointer
// disagreeing with the highest snapshot.
type GroomerStore struct {
	backend Backend
	config  Config
}

// NewGroomerStore creates a GroomerStore.
func NewGroomerStore(backend Backend, config Config) *GroomerStore {
	config.validate()
	return &GroomerStore{
		backend: backend,
		config:  config,
	}
}

// SaveGroomer appends a new version of groomer. On success groomer holds the
// pointer view: GroomerID set, Version "v0" and LatestVersion the new number.
func (s *GroomerStore) SaveGroomer(ctx context.Context, groomer *Groomer) error {
	if groomer == nil {
		return fmt.Errorf("%w: groomer is nil", ErrInvalidInput)
	}
	groomerID, err := keys.GroomerPartitionKey(groomer.EmployeeNumber)
	if err != nil {
		return err
	}

	current, err := s.getRecord(ctx, groomerID, keys.LatestVersion)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("read latest pointer of %s: %w", groomerID, err)
	}

	newVersion := 1
	if current != nil && current.LatestVersion != nil {
		newVersion = *current.LatestVersion + 1
	}

	snapshot := *groomer
	snapshot.GroomerID = groomerID
	snapshot.Version = keys.VersionTag(newVersion)
	snapshot.LatestVersion = nil

	var snapshotCond Filter
	if s.config.StrictVersioning {
		snapshotCond = Where(NotExists(AttrVersion))
	}
	if err := s.put(ctx, &snapshot, snapshotCond); err != nil {
		return fmt.Errorf("write snapshot %s/%s: %w", groomerID, snapshot.Version, err)
	}

	pointer := snapshot
	pointer.Version = keys.LatestVersion
	pointer.LatestVersion = &newVersion

	if err := s.put(ctx, &pointer, s.pointerCondition(current)); err != nil {
		s.config.Logger.ErrorContext(ctx, "snapshot written but latest pointer not advanced",
			"groomerId", groomerID,
			"snapshotVersion", newVersion,
			"pointerVersion", newVersion-1,
			"error", err,
		)
		return fmt.Errorf("write latest pointer %s (snapshot %s already written): %w", groomerID, snapshot.Version, err)
	}

	*groomer = pointer
	return nil
}

// GetGroomer returns the latest version of an employee.
func (s *GroomerStore) GetGroomer(ctx context.Context, employeeNumber string) (*Groomer, error) {
	groomerID, err := keys.GroomerPartitionKey(employeeNumber)
	if err != nil {
		return nil, err
	}
	return s.GetGroomerByID(ctx, groomerID)
}

// GetGroomerByID returns the latest version for a stored groomer id, such as
// Schedule.GroomerID.
func (s *GroomerStore) GetGroomerByID(ctx context.Context, groomerID string) (*Groomer, error) {
	if !strings.HasPrefix(groomerID, keys.PrefixGroomer) || len(groomerID) == len(keys.PrefixGroomer) {
		return nil, fmt.Errorf("%w: groomer id %q", ErrInvalidInput, groomerID)
	}
	g, err := s.getRecord(ctx, groomerID, keys.LatestVersion)
	if err != nil {
		return nil, fmt.Errorf("groomer %s: %w", groomerID, err)
	}
	return g, nil
}

// GetGroomerVersion returns snapshot n (n >= 1) of an employee.
func (s *GroomerStore) GetGroomerVersion(ctx context.Context, employeeNumber string, n int) (*Groomer, error) {
	groomerID, err := keys.GroomerPartitionKey(employeeNumber)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: snapshot version %d", ErrInvalidInput, n)
	}
	version := keys.VersionTag(n)
	g, err := s.getRecord(ctx, groomerID, version)
	if err != nil {
		return nil, fmt.Errorf("groomer %s/%s: %w", groomerID, version, err)
	}
	return g, nil
}

// GetAllGroomers returns the latest version of every employee, ordered by
// last then first name.
func (s *GroomerStore) GetAllGroomers(ctx context.Context) ([]Groomer, error) {
	groomers, err := s.scan(ctx, Where(Equal(AttrVersion, keys.LatestVersion)))
	if err != nil {
		return nil, err
	}

	slices.SortFunc(groomers, func(a, b Groomer) int {
		return cmp.Or(
			cmp.Compare(a.LastName, b.LastName),
			cmp.Compare(a.FirstName, b.FirstName),
			cmp.Compare(a.EmployeeNumber, b.EmployeeNumber),
		)
	})
	return groomers, nil
}

// ListGroomerVersions returns every snapshot of an employee, oldest first.
// The latest pointer is not included.
func (s *GroomerStore) ListGroomerVersions(ctx context.Context, employeeNumber string) ([]Groomer, error) {
	groomerID, err := keys.GroomerPartitionKey(employeeNumber)
	if err != nil {
		return nil, err
	}

	all, err := s.scan(ctx, Where(Equal(AttrGroomerID, groomerID)))
	if err != nil {
		return nil, err
	}

	type numbered struct {
		n int
		g Groomer
	}
	versions := make([]numbered, 0, len(all))
	for _, g := range all {
		n, err := keys.ParseVersionTag(g.Version)
		if err != nil {
			s.config.Logger.WarnContext(ctx, "skipping groomer record with malformed version",
				"groomerId", groomerID,
				"version", g.Version,
			)
			continue
		}
		if n == 0 {
			continue
		}
		versions = append(versions, numbered{n: n, g: g})
	}

	slices.SortFunc(versions, func(a, b numbered) int { return cmp.Compare(a.n, b.n) })

	snapshots := make([]Groomer, len(versions))
	for i, v := range versions {
		snapshots[i] = v.g
	}
	return snapshots, nil
}

// ReconcileGroomer points "v0" at the highest snapshot when the pointer is
// missing or behind, which happens when a save fails between its two writes.
// It reports whether the pointer was rewritten. If the pointer moves while
// it runs, ReconcileGroomer writes nothing and returns
// ErrConcurrentModification, whatever Config.StrictVersioning says.
func (s *GroomerStore) ReconcileGroomer(ctx context.Context, employeeNumber string) (bool, error) {
	snapshots, err := s.ListGroomerVersions(ctx, employeeNumber)
	if err != nil {
		return false, err
	}
	if len(snapshots) == 0 {
		return false, fmt.Errorf("groomer %s has no snapshots: %w", employeeNumber, ErrNotFound)
	}

	highest := snapshots[len(snapshots)-1]
	n, err := keys.ParseVersionTag(highest.Version)
	if err != nil {
		return false, err
	}

	current, err := s.getRecord(ctx, highest.GroomerID, keys.LatestVersion)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("read latest pointer of %s: %w", highest.GroomerID, err)
	}
	if current != nil && current.LatestVersion != nil && *current.LatestVersion >= n {
		return false, nil
	}

	pointer := highest
	pointer.Version = keys.LatestVersion
	pointer.LatestVersion = &n

	// Reconcile runs beside regular saves, so its write is always
	// conditioned on the pointer it read.
	if err := s.put(ctx, &pointer, latestCondition(current)); err != nil {
		return false, fmt.Errorf("reconcile latest pointer %s: %w", highest.GroomerID, err)
	}

	s.config.Logger.InfoContext(ctx, "reconciled groomer latest pointer",
		"groomerId", highest.GroomerID,
		"latestVersion", n,
	)
	return true, nil
}

// pointerCondition guards a save's pointer rewrite against a concurrent
// writer when strict versioning is on. current is the pointer read before
// the write.
func (s *GroomerStore) pointerCondition(current *Groomer) Filter {
	if !s.config.StrictVersioning {
		return nil
	}
	return latestCondition(current)
}

// latestCondition holds only while the pointer is still current.
func latestCondition(current *Groomer) Filter {
	if current == nil {
		return Where(NotExists(AttrGroomerID))
	}
	if current.LatestVersion == nil {
		return Where(NotExists(AttrLatestVersion))
	}
	return Where(Equal(AttrLatestVersion, *current.LatestVersion))
}

func (s *GroomerStore) put(ctx context.Context, g *Groomer, cond Filter) error {
	rec, err := encode(g)
	if err != nil {
		return err
	}
	err = s.backend.PutItem(ctx, s.config.GroomerTable, rec, cond)
	if errors.Is(err, ErrConditionFailed) {
		return fmt.Errorf("%w: %w", ErrConcurrentModification, err)
	}
	return err
}

func (s *GroomerStore) getRecord(ctx context.Context, groomerID, version string) (*Groomer, error) {
	rec, err := s.backend.GetItem(ctx, s.config.GroomerTable, PK{
		AttrGroomerID: &types.AttributeValueMemberS{Value: groomerID},
		AttrVersion:   &types.AttributeValueMemberS{Value: version},
	})
	if err != nil {
		return nil, err
	}
	var g Groomer
	if err := decode(rec, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *GroomerStore) scan(ctx context.Context, filter Filter) ([]Groomer, error) {
	recs, err := s.backend.Scan(ctx, s.config.GroomerTable, filter)
	if err != nil {
		return nil, fmt.Errorf("scan groomers (%s): %w", filter, err)
	}
	s.config.Logger.DebugContext(ctx, "scanned groomer table",
		"table", s.config.GroomerTable,
		"filter", filter.String(),
		"matches", len(recs),
	)

	groomers := make([]Groomer, 0, len(recs))
	for _, rec := range recs {
		var g Groomer
		if err := decode(rec, &g); err != nil {
			return nil, err
		}
		groomers = append(groomers, g)
	}
	return groomers, nil
}
