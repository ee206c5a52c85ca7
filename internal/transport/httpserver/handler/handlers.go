package handler

import (
	"timebank-go/internal/transport/httpserver/handler/common"
	"timebank-go/internal/transport/httpserver/handler/offers"
	"timebank-go/internal/transport/httpserver/handler/profiles"
	"timebank-go/internal/transport/httpserver/handler/settlement"
)

type Handlers struct {
	Common     *common.Handlers
	Profiles   *profiles.Handlers
	Offers     *offers.Handlers
	Settlement *settlement.Handlers
}

func New(common *common.Handlers, profiles *profiles.Handlers, offers *offers.Handlers, settlement *settlement.Handlers) *Handlers {
	return &Handlers{
		Common:     common,
		Profiles:   profiles,
		Offers:     offers,
		Settlement: settlement,
	}
}
