// Package localstore is the typed adapter over the on-device database: one
// collection per entity plus the queue bookkeeping the sync coordinator reads.
package localstore

import (
	"context"

	"github.com/nimasrn/denitracker/pkg/localdb"
)

type Store struct {
	*localdb.DB
	Customers    *CustomerCollection
	Items        *ItemCollection
	Transactions *TransactionCollection
}

func New(db *localdb.DB) *Store {
	return &Store{
		DB:           db,
		Customers:    NewCustomerCollection(db),
		Items:        NewItemCollection(db),
		Transactions: NewTransactionCollection(db),
	}
}

// MinID is the smallest key across all collections, used to seed the
// placeholder id generator after a restart.
func (s *Store) MinID(ctx context.Context) (int64, error) {
	var minID int64
	for _, f := range []func(context.Context) (int64, error){
		s.Customers.MinID, s.Items.MinID, s.Transactions.MinID,
	} {
		id, err := f(ctx)
		if err != nil {
			return 0, err
		}
		if id < minID {
			minID = id
		}
	}
	return minID, nil
}

// QueueDepth counts every write still waiting for the server.
func (s *Store) QueueDepth(ctx context.Context) (int64, error) {
	var total int64
	for _, f := range []func(context.Context) (int64, error){
		s.Customers.CountPending, s.Items.CountPending, s.Transactions.CountUnsynced,
	} {
		n, err := f(ctx)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
