package queries

import (
	"errors"
	"time"

	"artfactory/internal/pkg/guard"
)

var (
	ErrGetWorkersQueryIsNotConstructed = errors.New(
		"GetWorkersQuery must be created via NewGetWorkersQuery constructor",
	)
)

type GetWorkersQuery struct {
	guard guard.ConstructorGuard
}

func NewGetWorkersQuery() (GetWorkersQuery, error) {
	return GetWorkersQuery{guard: guard.NewConstructorGuard()}, nil
}

func (q GetWorkersQuery) Validate() error {
	return q.guard.Validate(ErrGetWorkersQueryIsNotConstructed)
}

type WorkerView struct {
	WorkerID    string
	Name        string
	State       string
	Health      string
	CurrentItem string
	Processed   int64
	Failed      int64
	StartedAt   time.Time
	LastSeen    time.Time
	Age         time.Duration
}

type GetWorkersQueryResponse struct {
	Workers []WorkerView
	Healthy int
	Stale   int
}
