package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/suds/store"
)

func newCustomerStore(t *testing.T) (*store.CustomerStore, store.Config, *int) {
	t.Helper()
	cfg := testConfig()
	b := newMemory(t, cfg)
	puts := countPuts(b, cfg.CustomerTable)
	return store.NewCustomerStore(b, cfg), cfg, puts
}

func TestCustomerStore_SaveAndGetParent(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newCustomerStore(t)

	parent := &store.Parent{
		FirstName:   "Jane",
		LastName:    "Doe",
		PhoneNumber: "(410) 555-1212",
		Address:     map[string]string{"city": "Baltimore"},
	}
	require.NoError(t, s.SaveParent(ctx, parent))
	assert.Equal(t, "CUSTOMER#4105551212", parent.CustomerID)
	assert.Equal(t, "PARENT#JANEDOE", parent.ID)

	got, err := s.GetParent(ctx, "410.555.1212")
	require.NoError(t, err)
	assert.Equal(t, *parent, *got)

	byName, err := s.GetParentByName(ctx, "4105551212", "jane", "d-o-e")
	require.NoError(t, err)
	assert.Equal(t, *parent, *byName)
}

func TestCustomerStore_ParentAddressRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newCustomerStore(t)

	for _, tt := range []struct {
		name    string
		phone   string
		address map[string]string
	}{
		{"nil", "4105550001", nil},
		{"empty", "4105550002", map[string]string{}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			parent := &store.Parent{FirstName: "Jane", LastName: "Doe", PhoneNumber: tt.phone, Address: tt.address}
			require.NoError(t, s.SaveParent(ctx, parent))

			got, err := s.GetParent(ctx, tt.phone)
			require.NoError(t, err)
			assert.Equal(t, *parent, *got)
		})
	}
}

func TestCustomerStore_SaveParentOverwrites(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newCustomerStore(t)

	require.NoError(t, s.SaveParent(ctx, &store.Parent{FirstName: "Jane", LastName: "Doe", PhoneNumber: "4105551212"}))
	require.NoError(t, s.SaveParent(ctx, &store.Parent{
		FirstName:   "Jane",
		LastName:    "Doe",
		PhoneNumber: "410-555-1212",
		Address:     map[string]string{"street": "1 Main St"},
	}))

	parents, err := s.GetAllParents(ctx)
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, "1 Main St", parents[0].Address["street"])
}

func TestCustomerStore_GetParentNotFound(t *testing.T) {
	s, _, _ := newCustomerStore(t)

	_, err := s.GetParent(context.Background(), "4105550000")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetParentByName(context.Background(), "4105550000", "Jane", "Doe")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCustomerStore_GetParentAmbiguous(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newCustomerStore(t)

	require.NoError(t, s.SaveParent(ctx, &store.Parent{FirstName: "Jane", LastName: "Doe", PhoneNumber: "4105551212"}))
	require.NoError(t, s.SaveParent(ctx, &store.Parent{FirstName: "John", LastName: "Doe", PhoneNumber: "4105551212"}))

	_, err := s.GetParent(ctx, "4105551212")
	require.ErrorIs(t, err, store.ErrAmbiguous)
}

func TestCustomerStore_GetParentIgnoresPets(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newCustomerStore(t)

	require.NoError(t, s.SavePet(ctx, &store.Pet{Name: "Rex", Type: "dog", PhoneNumber: "4105551212"}))
	_, err := s.GetParent(ctx, "4105551212")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SaveParent(ctx, &store.Parent{FirstName: "Jane", LastName: "Doe", PhoneNumber: "4105551212"}))
	got, err := s.GetParent(ctx, "4105551212")
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.FirstName)
}

func TestCustomerStore_GetAllParentsExcludesPets(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newCustomerStore(t)

	require.NoError(t, s.SaveParent(ctx, &store.Parent{FirstName: "Zoe", LastName: "Young", PhoneNumber: "1111111111"}))
	require.NoError(t, s.SaveParent(ctx, &store.Parent{FirstName: "Bob", LastName: "Adams", PhoneNumber: "2222222222"}))
	require.NoError(t, s.SaveParent(ctx, &store.Parent{FirstName: "Al", LastName: "Adams", PhoneNumber: "3333333333"}))
	require.NoError(t, s.SavePet(ctx, &store.Pet{Name: "Rex", Type: "dog", PhoneNumber: "1111111111"}))

	parents, err := s.GetAllParents(ctx)
	require.NoError(t, err)
	require.Len(t, parents, 3)

	names := make([]string, len(parents))
	for i, p := range parents {
		names[i] = p.FirstName + " " + p.LastName
	}
	assert.Equal(t, []string{"Al Adams", "Bob Adams", "Zoe Young"}, names)
}

func TestCustomerStore_EmptyTable(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newCustomerStore(t)

	parents, err := s.GetAllParents(ctx)
	require.NoError(t, err)
	assert.Empty(t, parents)

	pets, err := s.GetAllPets(ctx)
	require.NoError(t, err)
	assert.Empty(t, pets)
}

func TestCustomerStore_Pets(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newCustomerStore(t)

	require.NoError(t, s.SaveParent(ctx, &store.Parent{FirstName: "Jane", LastName: "Doe", PhoneNumber: "4105551212"}))
	require.NoError(t, s.SavePet(ctx, &store.Pet{Name: "Rex", Type: "dog", PhoneNumber: "410-555-1212"}))
	require.NoError(t, s.SavePet(ctx, &store.Pet{Name: "Buddy", Type: "dog", PhoneNumber: "4105551212", Notes: "nervous"}))
	require.NoError(t, s.SavePet(ctx, &store.Pet{Name: "Whiskers", Type: "cat", PhoneNumber: "3015550000"}))

	pets, err := s.GetPetsForParent(ctx, "(410) 555 1212")
	require.NoError(t, err)
	require.Len(t, pets, 2)
	assert.Equal(t, "Buddy", pets[0].Name)
	assert.Equal(t, "Rex", pets[1].Name)

	all, err := s.GetAllPets(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Whiskers", all[2].Name)

	none, err := s.GetPetsForParent(ctx, "9999999999")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCustomerStore_GetPet(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newCustomerStore(t)

	pet := &store.Pet{Name: "Mr. Buddy", Type: "dog", PhoneNumber: "4105551212", Notes: "likes treats"}
	require.NoError(t, s.SavePet(ctx, pet))
	assert.Equal(t, "PET#MRBUDDY", pet.ID)

	got, err := s.GetPet(ctx, "410-555-1212", "mr buddy")
	require.NoError(t, err)
	assert.Equal(t, *pet, *got)

	byID, err := s.GetPetByID(ctx, pet.CustomerID, pet.ID)
	require.NoError(t, err)
	assert.Equal(t, *pet, *byID)

	_, err = s.GetPet(ctx, "4105551212", "Rex")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCustomerStore_GetPetByIDRejectsParentKey(t *testing.T) {
	s, _, _ := newCustomerStore(t)

	_, err := s.GetPetByID(context.Background(), "CUSTOMER#4105551212", "PARENT#JANEDOE")
	require.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestCustomerStore_InvalidInput(t *testing.T) {
	ctx := context.Background()
	s, _, puts := newCustomerStore(t)

	tests := []struct {
		name string
		save func() error
	}{
		{"parent without phone digits", func() error {
			return s.SaveParent(ctx, &store.Parent{FirstName: "Jane", LastName: "Doe", PhoneNumber: "n/a"})
		}},
		{"parent with punctuation-only first name", func() error {
			return s.SaveParent(ctx, &store.Parent{FirstName: "--", LastName: "Doe", PhoneNumber: "4105551212"})
		}},
		{"parent without last name", func() error {
			return s.SaveParent(ctx, &store.Parent{FirstName: "Jane", PhoneNumber: "4105551212"})
		}},
		{"nil parent", func() error { return s.SaveParent(ctx, nil) }},
		{"pet without name", func() error {
			return s.SavePet(ctx, &store.Pet{Name: "  ", PhoneNumber: "4105551212"})
		}},
		{"pet without phone", func() error {
			return s.SavePet(ctx, &store.Pet{Name: "Rex"})
		}},
		{"nil pet", func() error { return s.SavePet(ctx, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.save(), store.ErrInvalidInput)
		})
	}
	assert.Zero(t, *puts, "no write may reach the backend")

	_, err := s.GetParent(ctx, "")
	require.ErrorIs(t, err, store.ErrInvalidInput)
	_, err = s.GetPetsForParent(ctx, "abc")
	require.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestCustomerStore_BackendUnavailable(t *testing.T) {
	s, _, _ := newCustomerStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.SaveParent(ctx, &store.Parent{FirstName: "Jane", LastName: "Doe", PhoneNumber: "4105551212"})
	require.ErrorIs(t, err, store.ErrBackendUnavailable)
	require.ErrorIs(t, err, context.Canceled)

	_, err = s.GetAllPets(ctx)
	require.ErrorIs(t, err, store.ErrBackendUnavailable)
}
