package repository

import (
	"github.com/t3rntools/bridge-cycler/db"
	"github.com/t3rntools/bridge-cycler/entity"
	"github.com/t3rntools/bridge-cycler/repository/postgres"
)

type Repo struct {
	Transfers   entity.TransfersRepo
	OrderEvents entity.OrderEventsRepo
}

func NewRepo(db *db.DB) *Repo {
	return &Repo{
		Transfers:   postgres.NewTransfersRepo("transfers", db),
		OrderEvents: postgres.NewOrderEventsRepo("order_events", db),
	}
}
