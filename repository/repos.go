package repository

import (
	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/repository/postgres"
)

type Repo struct {
	Transactor     entity.Transactor
	LogsCursors    entity.LogsCursorsRepo
	Logs           entity.LogsRepo
	Authorizations entity.AuthorizationsRepo
	Redemptions    entity.RedemptionsRepo
	BridgeEvents   entity.BridgeEventsRepo
	Attestations   entity.AttestationsRepo
}

func NewRepo(db *db.DB) *Repo {
	return &Repo{
		Transactor:     db,
		LogsCursors:    postgres.NewLogsCursorRepo("logs_cursors", db),
		Logs:           postgres.NewLogsRepo("logs", db),
		Authorizations: postgres.NewAuthorizationsRepo("authorizations", db),
		Redemptions:    postgres.NewRedemptionsRepo("redemptions", db),
		BridgeEvents:   postgres.NewBridgeEventsRepo("bridge_events", db),
		Attestations:   postgres.NewAttestationsRepo("attestations", db),
	}
}
