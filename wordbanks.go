/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/codenames/games/codenames"
)

type wordBankBody struct {
	Name  string   `json:"name"`
	Words []string `json:"words"`
}

func (g *Game) serveWordBanks(errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		banks, err := g.banks.ListWordBanks(r.Context())
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		g.serveJSON(w, r, http.StatusOK, banks, errs)
	}
}

func (g *Game) serveWordBank(errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		bank, err := g.banks.GetWordBank(r.Context(), ps.ByName("id"))
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		g.serveJSON(w, r, http.StatusOK, bank, errs)
	}
}

func (g *Game) serveCreateWordBank(errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var body wordBankBody
		if err := decodeJSON(r, &body); err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		bank, err := g.banks.CreateWordBank(r.Context(), codenames.WordBank{Name: body.Name, Words: body.Words})
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		g.log.Info().Str("bank", bank.ID).Str("name", bank.Name).Int("words", len(bank.Words)).Msg("GAMES: Created word bank")
		g.serveJSON(w, r, http.StatusCreated, bank, errs)
	}
}

func (g *Game) serveSeedDefaultBank(errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		bank, err := codenames.SeedDefaultBank(r.Context(), g.banks)
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		g.log.Info().Str("bank", bank.ID).Int("words", len(bank.Words)).Msg("GAMES: Seeded default word bank")
		g.serveJSON(w, r, http.StatusCreated, bank, errs)
	}
}

func (g *Game) serveUpdateWordBank(errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		var body wordBankBody
		if err := decodeJSON(r, &body); err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		bank, err := g.banks.UpdateWordBank(r.Context(), codenames.WordBank{
			ID:    ps.ByName("id"),
			Name:  body.Name,
			Words: body.Words,
		})
		if err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		g.serveJSON(w, r, http.StatusOK, bank, errs)
	}
}

func (g *Game) serveDeleteWordBank() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if err := g.banks.DeleteWordBank(r.Context(), ps.ByName("id")); err != nil {
			serveError(g.cfg, g.log, w, r, err)
			return
		}

		g.log.Info().Str("bank", ps.ByName("id")).Msg("GAMES: Deleted word bank")
		w.WriteHeader(http.StatusNoContent)
	}
}

func registerWordBankAPI(g *Game, mux *httprouter.Router, errs chan<- error) {
	prefix := g.cfg.prefix

	mux.GET(prefix+"/api/wordbanks", g.serveWordBanks(errs))
	mux.POST(prefix+"/api/wordbanks", g.serveCreateWordBank(errs))
	mux.POST(prefix+"/api/wordbanks/default", g.serveSeedDefaultBank(errs))
	mux.GET(prefix+"/api/wordbanks/:id", g.serveWordBank(errs))
	mux.PUT(prefix+"/api/wordbanks/:id", g.serveUpdateWordBank(errs))
	mux.DELETE(prefix+"/api/wordbanks/:id", g.serveDeleteWordBank())
}
