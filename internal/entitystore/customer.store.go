package entitystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimasrn/denitracker/internal/model"
)

type CustomerStore struct {
	*MutableStore[model.Customer, model.CustomerPatch]
}

func NewCustomerStore(local MutableCollection[model.Customer], remote MutableEndpoint[model.Customer, model.CustomerPatch], ids *PlaceholderIDs) *CustomerStore {
	return &CustomerStore{NewMutableStore[model.Customer, model.CustomerPatch](local, remote, ids, Options[model.Customer]{
		Name: "customer",
		Load: RemoteFirst,
	})}
}

func (s *CustomerStore) Add(ctx context.Context, in model.CustomerInput) (model.Customer, error) {
	if err := in.Validate(); err != nil {
		return model.Customer{}, err
	}
	return s.Create(ctx, in.Customer())
}

// Customer resolves id against the mirror, placeholders included.
func (s *CustomerStore) Customer(ctx context.Context, id int64) (model.Customer, error) {
	c, err := s.Resolve(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return c, fmt.Errorf("%w: %d", model.ErrUnknownCustomer, id)
	}
	return c, err
}
