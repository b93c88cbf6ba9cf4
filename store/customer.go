package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/suds/internal/keys"
)

// CustomerStore keeps parents and pets in one table. Both share the
// CUSTOMER#<digits> partition and are told apart by sort key prefix.
//
// Every list operation is a full table scan filtered by prefix, so its cost
// grows with the size of the table, not the size of the result.
type CustomerStore struct {
	backend Backend
	config  Config
}

// NewCustomerStore creates a CustomerStore.
func NewCustomerStore(backend Backend, config Config) *CustomerStore {
	config.validate()
	return &CustomerStore{
		backend: backend,
		config:  config,
	}
}

// SaveParent writes parent, overwriting any parent with the same phone number
// and name. It sets parent.CustomerID and parent.ID.
func (s *CustomerStore) SaveParent(ctx context.Context, parent *Parent) error {
	if parent == nil {
		return fmt.Errorf("%w: parent is nil", ErrInvalidInput)
	}
	customerID, err := keys.CustomerPartitionKey(parent.PhoneNumber)
	if err != nil {
		return err
	}
	id, err := keys.ParentSortKey(parent.FirstName, parent.LastName)
	if err != nil {
		return err
	}

	parent.CustomerID = customerID
	parent.ID = id

	rec, err := encode(parent)
	if err != nil {
		return err
	}
	if err := s.backend.PutItem(ctx, s.config.CustomerTable, rec, nil); err != nil {
		return fmt.Errorf("save parent %s/%s: %w", customerID, id, err)
	}
	return nil
}

// SavePet writes pet, overwriting any pet with the same phone number and
// name. It sets pet.CustomerID and pet.ID.
func (s *CustomerStore) SavePet(ctx context.Context, pet *Pet) error {
	if pet == nil {
		return fmt.Errorf("%w: pet is nil", ErrInvalidInput)
	}
	customerID, err := keys.CustomerPartitionKey(pet.PhoneNumber)
	if err != nil {
		return err
	}
	id, err := keys.PetSortKey(pet.Name)
	if err != nil {
		return err
	}

	pet.CustomerID = customerID
	pet.ID = id

	rec, err := encode(pet)
	if err != nil {
		return err
	}
	if err := s.backend.PutItem(ctx, s.config.CustomerTable, rec, nil); err != nil {
		return fmt.Errorf("save pet %s/%s: %w", customerID, id, err)
	}
	return nil
}

// GetParent finds the parent registered under phoneNumber. It returns
// ErrNotFound when there is none and ErrAmbiguous when more than one parent
// shares the number.
func (s *CustomerStore) GetParent(ctx context.Context, phoneNumber string) (*Parent, error) {
	customerID, err := keys.CustomerPartitionKey(phoneNumber)
	if err != nil {
		return nil, err
	}
	return s.GetParentByCustomerID(ctx, customerID)
}

// GetParentByCustomerID is GetParent for an already derived customer id,
// such as Schedule.CustomerID.
func (s *CustomerStore) GetParentByCustomerID(ctx context.Context, customerID string) (*Parent, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, fmt.Errorf("%w: customer id is empty", ErrInvalidInput)
	}

	parents, err := s.scanParents(ctx, Where(
		Equal(AttrCustomerID, customerID),
		BeginsWith(AttrID, keys.PrefixParent),
	))
	if err != nil {
		return nil, err
	}

	switch len(parents) {
	case 0:
		return nil, fmt.Errorf("parent %s: %w", customerID, ErrNotFound)
	case 1:
		return &parents[0], nil
	default:
		return nil, fmt.Errorf("parent %s: %d parents share the phone number: %w", customerID, len(parents), ErrAmbiguous)
	}
}

// GetParentByName looks a parent up by exact key.
func (s *CustomerStore) GetParentByName(ctx context.Context, phoneNumber, firstName, lastName string) (*Parent, error) {
	customerID, err := keys.CustomerPartitionKey(phoneNumber)
	if err != nil {
		return nil, err
	}
	id, err := keys.ParentSortKey(firstName, lastName)
	if err != nil {
		return nil, err
	}

	var parent Parent
	if err := s.get(ctx, customerID, id, &parent); err != nil {
		return nil, fmt.Errorf("parent %s/%s: %w", customerID, id, err)
	}
	return &parent, nil
}

// GetAllParents returns every parent, ordered by last then first name.
func (s *CustomerStore) GetAllParents(ctx context.Context) ([]Parent, error) {
	return s.scanParents(ctx, Where(BeginsWith(AttrID, keys.PrefixParent)))
}

// GetPet looks a pet up by exact key.
func (s *CustomerStore) GetPet(ctx context.Context, phoneNumber, name string) (*Pet, error) {
	customerID, err := keys.CustomerPartitionKey(phoneNumber)
	if err != nil {
		return nil, err
	}
	id, err := keys.PetSortKey(name)
	if err != nil {
		return nil, err
	}
	return s.GetPetByID(ctx, customerID, id)
}

// GetPetByID looks a pet up by its stored keys, such as Schedule.CustomerID
// and Schedule.PetID.
func (s *CustomerStore) GetPetByID(ctx context.Context, customerID, petID string) (*Pet, error) {
	if strings.TrimSpace(customerID) == "" || !strings.HasPrefix(petID, keys.PrefixPet) {
		return nil, fmt.Errorf("%w: pet key %q/%q", ErrInvalidInput, customerID, petID)
	}

	var pet Pet
	if err := s.get(ctx, customerID, petID, &pet); err != nil {
		return nil, fmt.Errorf("pet %s/%s: %w", customerID, petID, err)
	}
	return &pet, nil
}

// GetPetsForParent returns the pets registered under phoneNumber, ordered by name.
func (s *CustomerStore) GetPetsForParent(ctx context.Context, phoneNumber string) ([]Pet, error) {
	customerID, err := keys.CustomerPartitionKey(phoneNumber)
	if err != nil {
		return nil, err
	}
	return s.scanPets(ctx, Where(
		Equal(AttrCustomerID, customerID),
		BeginsWith(AttrID, keys.PrefixPet),
	))
}

// GetAllPets returns every pet, ordered by name.
func (s *CustomerStore) GetAllPets(ctx context.Context) ([]Pet, error) {
	return s.scanPets(ctx, Where(BeginsWith(AttrID, keys.PrefixPet)))
}

func (s *CustomerStore) get(ctx context.Context, customerID, id string, out any) error {
	rec, err := s.backend.GetItem(ctx, s.config.CustomerTable, PK{
		AttrCustomerID: &types.AttributeValueMemberS{Value: customerID},
		AttrID:         &types.AttributeValueMemberS{Value: id},
	})
	if err != nil {
		return err
	}
	return decode(rec, out)
}

// scanParents decodes only records carrying the parent prefix, so a filter
// that lets a pet through can never produce a half-decoded Parent.
func (s *CustomerStore) scanParents(ctx context.Context, filter Filter) ([]Parent, error) {
	recs, err := s.scan(ctx, filter)
	if err != nil {
		return nil, err
	}

	parents := make([]Parent, 0, len(recs))
	for _, rec := range recs {
		if !hasPrefix(rec, AttrID, keys.PrefixParent) {
			continue
		}
		var p Parent
		if err := decode(rec, &p); err != nil {
			return nil, err
		}
		parents = append(parents, p)
	}

	slices.SortFunc(parents, func(a, b Parent) int {
		return cmp.Or(
			cmp.Compare(a.LastName, b.LastName),
			cmp.Compare(a.FirstName, b.FirstName),
			cmp.Compare(a.CustomerID, b.CustomerID),
		)
	})
	return parents, nil
}

func (s *CustomerStore) scanPets(ctx context.Context, filter Filter) ([]Pet, error) {
	recs, err := s.scan(ctx, filter)
	if err != nil {
		return nil, err
	}

	pets := make([]Pet, 0, len(recs))
	for _, rec := range recs {
		if !hasPrefix(rec, AttrID, keys.PrefixPet) {
			continue
		}
		var p Pet
		if err := decode(rec, &p); err != nil {
			return nil, err
		}
		pets = append(pets, p)
	}

	slices.SortFunc(pets, func(a, b Pet) int {
		return cmp.Or(
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.CustomerID, b.CustomerID),
		)
	})
	return pets, nil
}

func (s *CustomerStore) scan(ctx context.Context, filter Filter) ([]Record, error) {
	recs, err := s.backend.Scan(ctx, s.config.CustomerTable, filter)
	if err != nil {
		return nil, fmt.Errorf("scan customers (%s): %w", filter, err)
	}
	s.config.Logger.DebugContext(ctx, "scanned customer table",
		"table", s.config.CustomerTable,
		"filter", filter.String(),
		"matches", len(recs),
	)
	return recs, nil
}

// encode marshals an entity into a Record.
func encode(v any) (Record, error) {
	m, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	return m, nil
}

// decode unmarshals a Record into out.
func decode(rec Record, out any) error {
	if err := attributevalue.UnmarshalMap(rec, out); err != nil {
		return fmt.Errorf("unmarshal %T: %w", out, err)
	}
	return nil
}

// hasPrefix reports whether the string attribute attr starts with prefix.
func hasPrefix(rec Record, attr, prefix string) bool {
	v, ok := rec[attr].(*types.AttributeValueMemberS)
	return ok && strings.HasPrefix(v.Value, prefix)
}
